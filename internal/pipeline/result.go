package pipeline

import (
	"github.com/speechforge/transcript-pipeline/internal/asr"
	"github.com/speechforge/transcript-pipeline/internal/diarize"
	"github.com/speechforge/transcript-pipeline/internal/subtitle"
)

// Request describes one transcription run.
type Request struct {
	// AudioPath is the extracted audio file (extraction itself is an
	// upstream concern).
	AudioPath string

	// Duration is the bounded audio duration in seconds.
	Duration float64

	// Name is the artifact base name; defaults to the audio file name
	// without extension.
	Name string

	// OutputDir defaults to the audio file's directory.
	OutputDir string

	// Format of the rendered artifact.
	Format subtitle.Format

	// ChunkDuration/OverlapDuration in seconds; zero values take the
	// configured defaults.
	ChunkDuration   float64
	OverlapDuration float64

	// Hints are forwarded to the diarization backend on speaker runs.
	Hints diarize.Hints

	// Language forces ASR recognition in a specific language.
	Language string
}

// Summary is returned to the caller after a successful (possibly degraded)
// run.
type Summary struct {
	OutputPath string  `json:"output_path"`
	Duration   float64 `json:"duration"`
	Language   string  `json:"language,omitempty"`

	// WordCount is reported for plain transcription runs.
	WordCount int `json:"word_count,omitempty"`

	// SpeakersDetected and UnassignedSegments are reported for diarized
	// runs. UnassignedSegments counts transcript spans no diarization
	// segment intersected — surfaced, never hidden.
	SpeakersDetected   int `json:"speakers_detected,omitempty"`
	UnassignedSegments int `json:"unassigned_segments"`

	// ProcessingTime is wall-clock seconds for the whole run.
	ProcessingTime float64 `json:"processing_time"`
}

// RunResult distinguishes full success from partial success explicitly: a
// run that degraded (some chunks failed, or the mock backend answered) has
// Degraded set and per-chunk Diagnostics attached. Callers must not treat a
// degraded run as fully successful. Hard failure is an error return, never
// a RunResult.
type RunResult struct {
	RunID   string  `json:"run_id"`
	Summary Summary `json:"summary"`

	// Diagnostics lists chunks that failed after retry and were emitted
	// as empty spans.
	Diagnostics []asr.Diagnostic `json:"diagnostics,omitempty"`

	// Degraded is true when Diagnostics is non-empty.
	Degraded bool `json:"degraded"`

	// SpeakingTime per canonical label, seconds; diarized runs only.
	SpeakingTime map[string]float64 `json:"speaking_time,omitempty"`
}
