package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChunksTotal 音频切片处理总数计数器
	// Labels: component (asr/diarize/merge/align/format), status (success/error)
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tp_audio_chunks_total",
			Help: "Total number of audio chunks processed by component",
		},
		[]string{"component", "status"},
	)

	// ErrorsTotal 流水线错误总数计数器
	// Labels: component, error_code (CONFIG_INVALID/ASR_BACKEND_FAILED/...)
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tp_pipeline_errors_total",
			Help: "Total number of pipeline errors by component and error code",
		},
		[]string{"component", "error_code"},
	)

	// StageDuration 流水线阶段耗时直方图（秒）
	// Labels: stage (chunk/asr/diarize/merge/align/format/write)
	// Buckets: 0.1s ~ 300s，与音频切片长度同量级
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tp_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// UnassignedSegments 未能匹配说话人的转写片段计数器
	UnassignedSegments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tp_unassigned_segments_total",
			Help: "Total number of transcript segments with no intersecting diarization segment",
		},
	)
)

// RecordChunkProcessed 记录音频切片处理完成
func RecordChunkProcessed(component string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	ChunksTotal.WithLabelValues(component, status).Inc()
}

// RecordError 记录流水线错误
func RecordError(component, errorCode string) {
	ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}

// RecordStageDuration 记录阶段耗时（秒）
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordUnassignedSegments 累加未匹配说话人的片段数
func RecordUnassignedSegments(n int) {
	UnassignedSegments.Add(float64(n))
}
