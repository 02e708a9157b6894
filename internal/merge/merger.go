// Package merge collapses the duplicated speech in chunk-overlap regions
// into one continuous, monotonically ordered transcript.
package merge

import (
	"log/slog"

	"github.com/speechforge/transcript-pipeline/internal/chunker"
	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// Part is one chunk's transcription with absolute timestamps, paired with
// the chunk window it came from.
type Part struct {
	Chunk    chunker.Chunk
	Segments []transcript.Segment
}

// Merge folds the ordered chunk transcriptions into a single transcript.
//
// Adjacent chunks n and n+1 both transcribe the shared window
// [chunk[n+1].Start, chunk[n].End]. Each chunk has maximal acoustic context
// for the half of that window nearer its own non-overlapping region, so the
// window is split at its midpoint M: chunk n keeps words starting before M,
// chunk n+1 keeps words starting at or after M. Segments are rebuilt from
// the surviving words — a clipped segment's end moves to its last surviving
// word and its text is re-joined; a segment left with no words is removed
// entirely rather than emitted empty.
//
// When the two sides transcribe the shared window very differently, the
// divergence is logged (see agreement.go) instead of silently resolved.
func Merge(parts []Part, log *slog.Logger) []transcript.Segment {
	if log == nil {
		log = slog.Default()
	}
	if len(parts) == 0 {
		return []transcript.Segment{}
	}

	merged := append([]transcript.Segment(nil), parts[0].Segments...)

	for i := 1; i < len(parts); i++ {
		prev := parts[i-1].Chunk
		cur := parts[i]

		ws, we := cur.Chunk.Start, prev.End
		if we <= ws {
			// No overlap between these chunks; nothing to reconcile.
			merged = append(merged, cur.Segments...)
			continue
		}

		mid := (ws + we) / 2
		checkOverlapAgreement(log, prev.Index, cur.Chunk.Index,
			windowText(merged, ws, we), windowText(cur.Segments, ws, we))

		merged = dropWordsFrom(merged, mid)
		merged = append(merged, dropWordsBefore(cur.Segments, mid)...)
	}

	return merged
}

// dropWordsFrom removes every word with start >= cutoff: the tail half of
// an overlap window, superseded by the next chunk's fuller future context.
func dropWordsFrom(segments []transcript.Segment, cutoff float64) []transcript.Segment {
	return rebuild(segments, func(w transcript.Word) bool { return w.Start < cutoff })
}

// dropWordsBefore removes every word with start < cutoff: the head half of
// an overlap window, superseded by the previous chunk's fuller past context.
func dropWordsBefore(segments []transcript.Segment, cutoff float64) []transcript.Segment {
	return rebuild(segments, func(w transcript.Word) bool { return w.Start >= cutoff })
}

// rebuild keeps the words matching keep and re-derives each segment's
// boundaries and text from its survivors. Segments without word detail are
// treated as a single word spanning the whole segment.
func rebuild(segments []transcript.Segment, keep func(transcript.Word) bool) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Words) == 0 {
			if keep(transcript.Word{Text: seg.Text, Start: seg.Start, End: seg.End}) {
				out = append(out, seg)
			}
			continue
		}

		kept := make([]transcript.Word, 0, len(seg.Words))
		for _, w := range seg.Words {
			if keep(w) {
				kept = append(kept, w)
			}
		}
		switch {
		case len(kept) == 0:
			// Fully superseded; never emit an empty segment.
		case len(kept) == len(seg.Words):
			out = append(out, seg)
		default:
			out = append(out, transcript.SegmentFromWords(kept, seg.Speaker))
		}
	}
	return out
}

// windowText collects the text both sides produced for the shared window,
// for the agreement check.
func windowText(segments []transcript.Segment, ws, we float64) string {
	var words []transcript.Word
	for _, seg := range segments {
		if seg.End <= ws || seg.Start >= we {
			continue
		}
		if len(seg.Words) == 0 {
			words = append(words, transcript.Word{Text: seg.Text, Start: seg.Start, End: seg.End})
			continue
		}
		for _, w := range seg.Words {
			if w.Start >= ws && w.Start < we {
				words = append(words, w)
			}
		}
	}
	return transcript.JoinWords(words)
}
