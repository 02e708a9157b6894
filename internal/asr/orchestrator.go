package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/speechforge/transcript-pipeline/internal/chunker"
	"github.com/speechforge/transcript-pipeline/internal/transcript"
	"github.com/speechforge/transcript-pipeline/pkg/logger"
	"github.com/speechforge/transcript-pipeline/pkg/metrics"
)

// ErrAllChunksFailed is returned when every chunk of a run failed after its
// retry. A partial failure is reported through diagnostics instead.
var ErrAllChunksFailed = errors.New("transcription failed for every chunk")

// Diagnostic records a chunk whose transcription failed after one retry.
// The run continues with an empty segment list for that chunk's span.
type Diagnostic struct {
	ChunkIndex int    `json:"chunk_index"`
	Error      string `json:"error"`
}

// ChunkResult is the transcription of one chunk with word and segment times
// already translated to the source timeline.
type ChunkResult struct {
	Chunk    chunker.Chunk
	Segments []transcript.Segment
}

// Orchestrator drives a Transcriber over a planned chunk sequence. Chunks
// are processed strictly in order: the backend is a non-re-entrant model
// handle, so there is nothing to gain from concurrency here.
type Orchestrator struct {
	transcriber Transcriber
	opts        *Options
	log         *slog.Logger
}

// NewOrchestrator creates an orchestrator around the given backend.
func NewOrchestrator(t Transcriber, opts *Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{transcriber: t, opts: opts, log: log}
}

// TranscribeChunks transcribes each chunk in order and translates timestamps
// into the source timeline.
//
// A chunk failure is retried once; a second failure records a Diagnostic and
// yields an empty segment list for that chunk so a single bad chunk never
// aborts the run. The call errors only when the context is cancelled or
// every chunk failed. The returned language is the first non-empty backend
// language tag, canonicalized.
func (o *Orchestrator) TranscribeChunks(ctx context.Context, audioPath string, chunks []chunker.Chunk) ([]ChunkResult, []Diagnostic, string, error) {
	results := make([]ChunkResult, 0, len(chunks))
	var diags []Diagnostic
	lang := ""

	for _, c := range chunks {
		// Cancellation is checked between chunks only; the backend call
		// itself is not preemptible.
		if err := ctx.Err(); err != nil {
			return nil, nil, "", err
		}

		start := time.Now()
		res, err := o.transcribeWithRetry(ctx, audioPath, c)
		elapsed := time.Since(start)

		if err != nil {
			metrics.RecordChunkProcessed("asr", false)
			metrics.RecordError("asr", "ASR_BACKEND_FAILED")
			logger.LogChunkProcessing(o.log, "asr", "error", c.Index, elapsed.Milliseconds(), "ASR_BACKEND_FAILED")
			diags = append(diags, Diagnostic{ChunkIndex: c.Index, Error: err.Error()})
			results = append(results, ChunkResult{Chunk: c, Segments: []transcript.Segment{}})
			continue
		}

		metrics.RecordChunkProcessed("asr", true)
		logger.LogChunkProcessing(o.log, "asr", "success", c.Index, elapsed.Milliseconds(), "")

		if lang == "" && res.Language != "" {
			lang = canonicalLanguage(res.Language)
		}
		results = append(results, ChunkResult{Chunk: c, Segments: shiftSegments(res.Segments, c.Start)})
	}

	if len(chunks) > 0 && len(diags) == len(chunks) {
		return nil, diags, "", fmt.Errorf("%w: %d chunks", ErrAllChunksFailed, len(chunks))
	}
	return results, diags, lang, nil
}

func (o *Orchestrator) transcribeWithRetry(ctx context.Context, audioPath string, c chunker.Chunk) (*Result, error) {
	win := Window{Start: c.Start, End: c.End}

	res, err := o.transcriber.Transcribe(ctx, audioPath, win, o.opts)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	o.log.Warn("chunk transcription failed, retrying once",
		"chunk", c.Index, "backend", o.transcriber.Name(), "error", err)
	logger.LogChunkProcessing(o.log, "asr", "retry", c.Index, 0, "")

	res, retryErr := o.transcriber.Transcribe(ctx, audioPath, win, o.opts)
	if retryErr != nil {
		return nil, fmt.Errorf("chunk %d failed after retry: %w", c.Index, retryErr)
	}
	return res, nil
}

// shiftSegments translates window-relative times by the chunk's start
// offset and rebuilds the derived segment fields.
func shiftSegments(segments []transcript.Segment, offset float64) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(segments))
	for _, s := range segments {
		if len(s.Words) == 0 {
			s.Start += offset
			s.End += offset
			out = append(out, s)
			continue
		}
		words := make([]transcript.Word, len(s.Words))
		for i, w := range s.Words {
			w.Start += offset
			w.End += offset
			words[i] = w
		}
		out = append(out, transcript.SegmentFromWords(words, s.Speaker))
	}
	return out
}

// canonicalLanguage normalizes a backend language tag ("en", "en-US",
// "eng") to its base form. Unparseable tags pass through unchanged.
func canonicalLanguage(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := parsed.Base()
	return base.String()
}
