// Package pipeline wires chunk planning, ASR orchestration, overlap merge,
// diarization alignment and artifact rendering into the two end-to-end
// transcription operations, plus post-hoc speaker renaming.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/speechforge/transcript-pipeline/internal/asr"
	"github.com/speechforge/transcript-pipeline/internal/chunker"
	"github.com/speechforge/transcript-pipeline/internal/config"
	"github.com/speechforge/transcript-pipeline/internal/diarize"
	"github.com/speechforge/transcript-pipeline/internal/merge"
	"github.com/speechforge/transcript-pipeline/internal/subtitle"
	"github.com/speechforge/transcript-pipeline/internal/transcript"
	"github.com/speechforge/transcript-pipeline/pkg/metrics"
)

// Pipeline owns the backend handles and runs transcription requests. The
// guards serialize inference calls on the non-re-entrant model handles, so
// one Pipeline is safe for concurrent use.
type Pipeline struct {
	transcriber asr.Transcriber
	diarizer    diarize.Diarizer
	cfg         *config.Config
	log         *slog.Logger

	asrGuard  *ModelGuard
	diarGuard *ModelGuard
}

// New creates a pipeline. diarizer may be nil when only plain transcription
// runs are needed.
func New(transcriber asr.Transcriber, diarizer diarize.Diarizer, cfg *config.Config, log *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		transcriber: transcriber,
		diarizer:    diarizer,
		cfg:         cfg,
		log:         log,
		asrGuard:    NewModelGuard(),
		diarGuard:   NewModelGuard(),
	}
}

// Transcribe runs chunked transcription and writes one artifact in the
// requested format. It returns a RunResult even when some chunks degraded;
// hard failure is an error carrying a PipelineError.
func (p *Pipeline) Transcribe(ctx context.Context, req Request) (*RunResult, error) {
	return p.run(ctx, req, false)
}

// TranscribeWithSpeakers runs chunked transcription followed by whole-file
// diarization and writes a speaker-labeled artifact.
func (p *Pipeline) TranscribeWithSpeakers(ctx context.Context, req Request) (*RunResult, error) {
	return p.run(ctx, req, true)
}

func (p *Pipeline) run(ctx context.Context, req Request, withSpeakers bool) (*RunResult, error) {
	started := time.Now()
	runID := uuid.New().String()
	log := p.log.With("run_id", runID, "audio", req.AudioPath)

	applyRequestDefaults(&req, p.cfg)

	// 阶段一：切块规划
	chunks, err := chunker.Plan(req.Duration, req.ChunkDuration, req.OverlapDuration)
	if err != nil {
		return nil, NewPipelineError(CONFIG_INVALID, StageChunk, "invalid chunk plan", err)
	}
	log.Info("chunk plan ready", "chunks", len(chunks),
		"chunk_duration", req.ChunkDuration, "overlap_duration", req.OverlapDuration)

	if err := cancelled(ctx, StageChunk); err != nil {
		return nil, err
	}

	// 阶段二：逐块识别
	asrStart := time.Now()
	parts, diags, lang, err := p.transcribeChunks(ctx, req, chunks)
	metrics.RecordStageDuration(StageASR, time.Since(asrStart).Seconds())
	if err != nil {
		return nil, err
	}
	if req.Language != "" {
		lang = req.Language
	}

	if err := cancelled(ctx, StageASR); err != nil {
		return nil, err
	}

	// 阶段三：重叠区合并
	mergeStart := time.Now()
	segments := merge.Merge(parts, log)
	metrics.RecordStageDuration(StageMerge, time.Since(mergeStart).Seconds())
	log.Info("chunks merged", "segments", len(segments))

	result := &RunResult{
		RunID:       runID,
		Diagnostics: diags,
		Degraded:    len(diags) > 0,
	}
	doc := subtitle.Document{
		Segments: segments,
		Duration: req.Duration,
		Language: lang,
	}

	if withSpeakers {
		if err := cancelled(ctx, StageMerge); err != nil {
			return nil, err
		}

		diarStart := time.Now()
		diarization, err := p.diarize(ctx, req)
		metrics.RecordStageDuration(StageDiarize, time.Since(diarStart).Seconds())
		if err != nil {
			return nil, err
		}

		alignStart := time.Now()
		alignment := diarize.Align(segments, diarization)
		metrics.RecordStageDuration(StageAlign, time.Since(alignStart).Seconds())
		metrics.RecordUnassignedSegments(alignment.Stats.UnassignedSegments)
		if alignment.Stats.UnassignedSegments > 0 {
			log.Warn("segments left unassigned",
				"count", alignment.Stats.UnassignedSegments, "speakers", alignment.Stats.Speakers)
		}

		doc.Segments = alignment.Segments
		doc.Diarized = true
		doc.SpeakerCount = alignment.Stats.Speakers
		doc.UnassignedSegments = alignment.Stats.UnassignedSegments

		result.SpeakingTime = alignment.Stats.SpeakingTime
		result.Summary.SpeakersDetected = alignment.Stats.Speakers
		result.Summary.UnassignedSegments = alignment.Stats.UnassignedSegments
	} else {
		result.Summary.WordCount = transcript.WordCount(segments)
	}

	if err := cancelled(ctx, StageFormat); err != nil {
		return nil, err
	}

	// 阶段四：渲染与写盘
	content, err := subtitle.Render(doc, req.Format)
	if err != nil {
		return nil, NewPipelineError(CONFIG_INVALID, StageFormat, "failed to render artifact", err)
	}

	outputPath := artifactPath(req, withSpeakers)
	writeStart := time.Now()
	if err := subtitle.WriteArtifact(outputPath, content); err != nil {
		metrics.RecordError(StageWrite, string(IO_FAILED))
		return nil, NewPipelineError(IO_FAILED, StageWrite, "failed to write artifact", err)
	}
	metrics.RecordStageDuration(StageWrite, time.Since(writeStart).Seconds())

	result.Summary.OutputPath = outputPath
	result.Summary.Duration = req.Duration
	result.Summary.Language = lang
	result.Summary.ProcessingTime = time.Since(started).Seconds()

	log.Info("run complete", "output", outputPath,
		"degraded", result.Degraded, "processing_time", result.Summary.ProcessingTime)
	return result, nil
}

// transcribeChunks holds the ASR model guard for the whole chunk sequence:
// interleaving chunks of concurrent runs would thrash backend state.
func (p *Pipeline) transcribeChunks(ctx context.Context, req Request, chunks []chunker.Chunk) ([]merge.Part, []asr.Diagnostic, string, error) {
	if err := p.asrGuard.Acquire(ctx); err != nil {
		return nil, nil, "", NewPipelineError(RUN_CANCELLED, StageASR, "cancelled waiting for ASR handle", err)
	}
	defer p.asrGuard.Release()

	opts := &asr.Options{
		Model:    p.cfg.ASR.Model,
		Language: req.Language,
	}
	if opts.Language == "" {
		opts.Language = p.cfg.ASR.Language
	}
	if p.cfg.ASR.Timeout != "" {
		if d, err := time.ParseDuration(p.cfg.ASR.Timeout); err == nil {
			opts.Timeout = d
		}
	}

	orch := asr.NewOrchestrator(p.transcriber, opts, p.log)
	results, diags, lang, err := orch.TranscribeChunks(ctx, req.AudioPath, chunks)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, "", NewPipelineError(RUN_CANCELLED, StageASR, "run cancelled", err)
		}
		metrics.RecordError(StageASR, string(ASR_BACKEND_FAILED))
		return nil, nil, "", NewPipelineError(ASR_BACKEND_FAILED, StageASR, "all chunks failed", err)
	}

	parts := make([]merge.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, merge.Part{Chunk: r.Chunk, Segments: r.Segments})
	}
	return parts, diags, lang, nil
}

// diarize runs whole-file diarization with one retry, mirroring the
// per-chunk ASR retry policy.
func (p *Pipeline) diarize(ctx context.Context, req Request) ([]diarize.Segment, error) {
	if p.diarizer == nil {
		return nil, NewPipelineError(DIARIZATION_FAILED, StageDiarize, "no diarization backend configured", nil)
	}

	if err := p.diarGuard.Acquire(ctx); err != nil {
		return nil, NewPipelineError(RUN_CANCELLED, StageDiarize, "cancelled waiting for diarization handle", err)
	}
	defer p.diarGuard.Release()

	segs, err := p.diarizer.Diarize(ctx, req.AudioPath, req.Hints)
	if err == nil {
		return segs, nil
	}
	if ctx.Err() != nil {
		return nil, NewPipelineError(RUN_CANCELLED, StageDiarize, "run cancelled", err)
	}

	p.log.Warn("diarization failed, retrying once",
		"backend", p.diarizer.Name(), "error", err)
	segs, retryErr := p.diarizer.Diarize(ctx, req.AudioPath, req.Hints)
	if retryErr != nil {
		metrics.RecordError(StageDiarize, string(DIARIZATION_FAILED))
		return nil, NewPipelineError(DIARIZATION_FAILED, StageDiarize, "diarization failed after retry", retryErr)
	}
	return segs, nil
}

// RenameSpeakers rewrites speaker labels in a persisted artifact, mapping
// the subtitle package's failures onto the pipeline error taxonomy.
func (p *Pipeline) RenameSpeakers(srtPath string, speakerMap subtitle.SpeakerMap, opts subtitle.RenameOptions) (*subtitle.RenameResult, error) {
	res, err := subtitle.RenameSpeakers(srtPath, speakerMap, opts)
	if err != nil {
		switch {
		case errors.Is(err, subtitle.ErrMalformed):
			metrics.RecordError(StageRename, string(FORMAT_INVALID))
			return nil, NewPipelineError(FORMAT_INVALID, StageRename, "artifact cannot be parsed", err)
		case errors.Is(err, subtitle.ErrUnknownLabel):
			return nil, NewPipelineError(CONFIG_INVALID, StageRename, "speaker map rejected", err)
		case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
			metrics.RecordError(StageRename, string(IO_FAILED))
			return nil, NewPipelineError(IO_FAILED, StageRename, "artifact I/O failed", err)
		default:
			return nil, NewPipelineError(CONFIG_INVALID, StageRename, "rename failed", err)
		}
	}
	p.log.Info("speakers renamed", "artifact", res.OutputPath,
		"replacements", res.Replacements, "backup", res.BackupPath)
	return res, nil
}

func applyRequestDefaults(req *Request, cfg *config.Config) {
	if req.ChunkDuration == 0 {
		req.ChunkDuration = cfg.Chunking.ChunkDuration
	}
	if req.OverlapDuration == 0 {
		req.OverlapDuration = cfg.Chunking.OverlapDuration
	}
	if req.Format == "" {
		if f, err := subtitle.ParseFormat(cfg.Output.Format); err == nil {
			req.Format = f
		} else {
			req.Format = subtitle.FormatSRT
		}
	}
	if req.Name == "" {
		base := filepath.Base(req.AudioPath)
		req.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if req.OutputDir == "" {
		if cfg.Output.Dir != "" {
			req.OutputDir = cfg.Output.Dir
		} else {
			req.OutputDir = filepath.Dir(req.AudioPath)
		}
	}
}

// artifactPath names the artifact {name}.{ext}, or {name}.speakers.{ext}
// for diarized runs so the two outputs of the same audio never collide.
func artifactPath(req Request, withSpeakers bool) string {
	name := req.Name
	if withSpeakers {
		name += ".speakers"
	}
	return filepath.Join(req.OutputDir, name+"."+req.Format.Ext())
}

// cancelled converts a done context into the taxonomy error for the stage
// boundary where it was observed.
func cancelled(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return NewPipelineError(RUN_CANCELLED, stage, "run cancelled", err)
	}
	return nil
}
