// Package asr provides an abstraction layer for speech-to-text backends and
// the chunk-by-chunk transcription orchestrator. It defines standard
// interfaces and data structures to support multiple implementations
// (whisper-compatible HTTP services and a mock fallback).
package asr

import (
	"context"
	"time"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// Window is the slice of the source audio a single Transcribe call covers,
// in seconds on the source timeline. Backends receive the window and return
// word timestamps relative to the window start; the orchestrator translates
// them back to absolute time.
type Window struct {
	Start float64
	End   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Result represents the outcome of transcribing one audio window.
type Result struct {
	// Segments is the ordered list of transcribed segments. Word and
	// segment times are relative to the window start.
	Segments []transcript.Segment `json:"segments"`

	// Language is the detected or forced language code as reported by the
	// backend (e.g. "en", "zh").
	Language string `json:"language"`

	// Duration is the audio duration the backend actually saw, in seconds.
	Duration float64 `json:"duration"`
}

// Transcriber defines the standard interface for speech recognition
// backends. Implementations must respect context cancellation and should
// wrap external errors with context. An empty window must produce a valid
// Result with zero segments, not an error.
//
// The backend is expected to be a long-lived, non-re-entrant model handle;
// callers serialize access (see internal/pipeline).
type Transcriber interface {
	// Transcribe recognizes speech in the given window of the audio file.
	// Word timestamps in the result are relative to win.Start.
	Transcribe(ctx context.Context, audioPath string, win Window, opts *Options) (*Result, error)

	// HealthCheck verifies that the backend is operational. It should be
	// lightweight (< 10 seconds).
	HealthCheck(ctx context.Context) (bool, error)

	// Name returns the human-readable identifier of this implementation,
	// used for logging and diagnostics.
	Name() string
}

// Options defines optional parameters for the Transcribe operation.
// All fields are optional; implementations provide sensible defaults.
type Options struct {
	// Model selects the backend model (e.g. "ggml-base", "large-v3").
	Model string

	// Language forces recognition in a specific language (ISO 639-1).
	// Empty means auto-detection.
	Language string

	// Prompt provides context to improve recognition of domain terms.
	Prompt string

	// Temperature for decoding; 0 reduces hallucinated repetitions.
	Temperature float64

	// Timeout overrides the default per-call timeout.
	Timeout time.Duration
}
