// Package diarize provides the speaker-diarization backend abstraction and
// the aligner that assigns speaker labels to merged transcript segments.
package diarize

import (
	"context"
)

// Segment is one "who spoke when" interval as reported by the backend.
// Speaker is a backend-local raw id (not stable across runs); canonical
// labels are assigned by the aligner.
type Segment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Hints constrains the backend's speaker clustering. Zero values mean
// "unset". NumSpeakers wins over the min/max range when provided.
type Hints struct {
	NumSpeakers int
	MinSpeakers int
	MaxSpeakers int
}

// Diarizer defines the standard interface for diarization backends.
// Diarization runs once over the whole audio, never chunked: speaker
// clustering needs global context, and the backend's raw ids would not be
// comparable across independent calls.
type Diarizer interface {
	// Diarize partitions the audio into speaker segments, ordered by
	// start time.
	Diarize(ctx context.Context, audioPath string, hints Hints) ([]Segment, error)

	// HealthCheck verifies that the backend is operational.
	HealthCheck(ctx context.Context) (bool, error)

	// Name returns the human-readable identifier of this implementation.
	Name() string
}
