// Package chunker plans the split of a bounded-duration audio stream into
// overlapping time windows for chunk-by-chunk transcription.
package chunker

import (
	"errors"
	"fmt"
)

// Default chunking parameters. Two-minute chunks keep per-call latency and
// backend memory bounded; a 15s overlap guarantees words at a chunk boundary
// are transcribed with full acoustic context by at least one side.
const (
	DefaultChunkDuration   = 120.0
	DefaultOverlapDuration = 15.0
)

// ErrInvalidOverlap is returned when overlap >= chunk duration. Such a plan
// would never advance through the audio.
var ErrInvalidOverlap = errors.New("overlap must be shorter than chunk duration")

// ErrInvalidDuration is returned for a non-positive total or chunk duration.
var ErrInvalidDuration = errors.New("duration must be positive")

// Chunk is one planned window of the source audio, in seconds on the source
// timeline. Index gives deterministic pairing with per-chunk results.
type Chunk struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the window length in seconds.
func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%.2fs-%.2fs]", c.Index, c.Start, c.End)
}

// Plan computes the ordered chunk windows covering [0, total].
//
// When total <= chunkDur a single chunk [0, total] is emitted. Otherwise
// chunks advance with stride chunkDur-overlap so that consecutive chunks
// share exactly overlap seconds; the final chunk may be shorter than
// chunkDur but is never dropped.
func Plan(total, chunkDur, overlap float64) ([]Chunk, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total %.2fs", ErrInvalidDuration, total)
	}
	if chunkDur <= 0 {
		return nil, fmt.Errorf("%w: chunk %.2fs", ErrInvalidDuration, chunkDur)
	}
	if overlap < 0 || overlap >= chunkDur {
		return nil, fmt.Errorf("%w: overlap %.2fs, chunk %.2fs", ErrInvalidOverlap, overlap, chunkDur)
	}

	if total <= chunkDur {
		return []Chunk{{Index: 0, Start: 0, End: total}}, nil
	}

	stride := chunkDur - overlap
	var chunks []Chunk
	for i := 0; ; i++ {
		start := float64(i) * stride
		if start >= total {
			break
		}
		end := start + chunkDur
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{Index: i, Start: start, End: end})
		if end >= total {
			break
		}
	}
	return chunks, nil
}
