package diarize

import (
	"sort"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// Stats summarizes a diarization alignment for the run summary.
type Stats struct {
	// Speakers is the number of distinct canonical labels assigned.
	Speakers int `json:"speakers"`

	// SpeakingTime is the cumulative duration of labeled transcript
	// segments per canonical label, in seconds. It reflects what the
	// rendered artifact shows, not the raw diarization spans.
	SpeakingTime map[string]float64 `json:"speaking_time"`

	// UnassignedSegments counts transcript segments that intersected no
	// diarization segment. Surfaced to the caller, never hidden.
	UnassignedSegments int `json:"unassigned_segments"`
}

// Alignment is the labeled transcript plus its summary statistics.
type Alignment struct {
	Segments []transcript.Segment
	Stats    Stats
}

// Align assigns a speaker label to every transcript segment.
//
// For each segment the diarization segment with the largest temporal
// overlap wins; ties break to the earliest diarization start. Raw backend
// ids map to canonical labels (SPEAKER_00, SPEAKER_01, ...) in order of
// first appearance in the diarization stream, which makes labels
// deterministic across runs regardless of which transcript segment is
// matched first. Segments with no intersecting diarization segment get the
// Unassigned sentinel.
func Align(segments []transcript.Segment, diarization []Segment) Alignment {
	ordered := make([]Segment, len(diarization))
	copy(ordered, diarization)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	// Canonical labels follow the diarization stream, not the transcript.
	labels := make(map[string]string)
	for _, d := range ordered {
		if _, ok := labels[d.Speaker]; !ok {
			labels[d.Speaker] = transcript.SpeakerLabel(len(labels))
		}
	}

	out := Alignment{
		Segments: make([]transcript.Segment, 0, len(segments)),
		Stats:    Stats{SpeakingTime: make(map[string]float64)},
	}
	assigned := make(map[string]bool)

	for _, seg := range segments {
		best := 0.0
		speaker := transcript.Unassigned
		for _, d := range ordered {
			overlap := overlapDuration(seg.Start, seg.End, d.Start, d.End)
			// Strict comparison keeps the earliest-starting segment
			// on equal overlap.
			if overlap > best {
				best = overlap
				speaker = labels[d.Speaker]
			}
		}

		seg.Speaker = speaker
		out.Segments = append(out.Segments, seg)

		if speaker == transcript.Unassigned {
			out.Stats.UnassignedSegments++
			continue
		}
		assigned[speaker] = true
		out.Stats.SpeakingTime[speaker] += seg.End - seg.Start
	}

	out.Stats.Speakers = len(assigned)
	return out
}

func overlapDuration(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
