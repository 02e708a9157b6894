package asr

import (
	"context"
	"log/slog"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// MockTranscriber is the fallback "degraded mode" implementation. It returns
// empty results without blocking so a run can complete (and report itself as
// degraded) even when no real backend is reachable.
//
// HealthCheck always reports unhealthy so callers know the system is in
// fallback mode rather than quietly producing empty transcripts.
type MockTranscriber struct {
	log *slog.Logger
}

// NewMockTranscriber creates a MockTranscriber. The logger may be nil.
func NewMockTranscriber(log *slog.Logger) *MockTranscriber {
	if log == nil {
		log = slog.Default()
	}
	return &MockTranscriber{log: log}
}

// Transcribe returns an empty result and never an error.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string, win Window, opts *Options) (*Result, error) {
	m.log.Warn("MockTranscriber: returning empty transcription (degraded mode)",
		"audio", audioPath, "window_start", win.Start, "window_end", win.End)

	return &Result{
		Segments: []transcript.Segment{},
		Language: "unknown",
		Duration: 0,
	}, nil
}

// HealthCheck always returns false: the mock represents a degraded state.
func (m *MockTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name returns the identifier of this transcriber implementation.
func (m *MockTranscriber) Name() string {
	return "mock-degraded"
}
