package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode 表示流水线错误类型代码
type ErrorCode string

const (
	// CONFIG_INVALID 配置非法（如 overlap >= chunk duration）
	CONFIG_INVALID ErrorCode = "CONFIG_INVALID"

	// ASR_BACKEND_FAILED ASR 后端调用失败（重试一次后仍失败）
	ASR_BACKEND_FAILED ErrorCode = "ASR_BACKEND_FAILED"

	// DIARIZATION_FAILED 说话人分离后端调用失败（重试一次后仍失败）
	DIARIZATION_FAILED ErrorCode = "DIARIZATION_FAILED"

	// FORMAT_INVALID 无法解析已有字幕文件
	FORMAT_INVALID ErrorCode = "FORMAT_INVALID"

	// IO_FAILED 写入产物或备份时的磁盘/权限错误
	IO_FAILED ErrorCode = "IO_FAILED"

	// RUN_CANCELLED 调用方在阶段间取消了本次运行
	RUN_CANCELLED ErrorCode = "RUN_CANCELLED"
)

// 流水线阶段名，用于错误定位与指标标签
const (
	StageChunk   = "chunk"
	StageASR     = "asr"
	StageMerge   = "merge"
	StageDiarize = "diarize"
	StageAlign   = "align"
	StageFormat  = "format"
	StageWrite   = "write"
	StageRename  = "rename"
)

// PipelineError 表示流水线处理错误，始终携带失败阶段
type PipelineError struct {
	Code      ErrorCode `json:"code"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Stage, e.Message)
}

// Unwrap 实现错误链支持
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError 创建新的流水线错误
func NewPipelineError(code ErrorCode, stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Stage:     stage,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// CodeOf 提取错误的流水线错误代码，非流水线错误返回空串
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
