// Package transcript defines the shared data model for time-aligned
// transcripts: words, segments and speaker labels. Every pipeline stage
// (chunk transcription, overlap merge, diarization alignment, rendering)
// consumes and produces these types.
package transcript

import (
	"fmt"
	"strings"
)

// Unassigned is the sentinel speaker label for a segment that intersects no
// diarization segment. It is a valid, countable value and is never dropped.
const Unassigned = "UNASSIGNED"

// Word is a single transcribed token with timing information.
// After orchestration, Start and End are absolute times in the source
// timeline (seconds); a backend returns them relative to the slice it saw.
type Word struct {
	// Text is the token as returned by the ASR backend.
	Text string `json:"text"`

	// Start is the word onset in seconds. Always < End.
	Start float64 `json:"start"`

	// End is the word offset in seconds.
	End float64 `json:"end"`

	// Confidence is the backend's posterior for this word, 0..1.
	Confidence float64 `json:"confidence,omitempty"`
}

// Segment is a continuous speech interval built from an ordered word
// sequence. Start equals the first word's start, End the last word's end,
// and Text is the whitespace-joined concatenation of the word texts.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`

	// Words carries per-word timing when the backend provides it.
	// Segments recovered from a parsed artifact have no word detail.
	Words []Word `json:"words,omitempty"`

	// Confidence is the mean word confidence, 0 when unknown.
	Confidence float64 `json:"confidence,omitempty"`

	// Speaker is empty until diarization alignment assigns a canonical
	// label (SPEAKER_00, SPEAKER_01, ...) or the Unassigned sentinel.
	Speaker string `json:"speaker,omitempty"`
}

// SpeakerLabel returns the canonical label for the n-th distinct speaker,
// counted from zero in order of first appearance in the diarization stream.
func SpeakerLabel(n int) string {
	return fmt.Sprintf("SPEAKER_%02d", n)
}

// JoinWords concatenates word texts with single spaces.
func JoinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// SegmentFromWords rebuilds a segment from an ordered, non-empty word
// sequence. Start, End, Text and Confidence are all derived from the words;
// the speaker label is preserved from the prototype segment.
func SegmentFromWords(words []Word, speaker string) Segment {
	seg := Segment{
		Start:   words[0].Start,
		End:     words[len(words)-1].End,
		Text:    JoinWords(words),
		Words:   words,
		Speaker: speaker,
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	seg.Confidence = sum / float64(len(words))
	return seg
}

// WordCount returns the total number of words across segments. Segments
// without word detail fall back to whitespace-separated fields of Text.
func WordCount(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if len(s.Words) > 0 {
			n += len(s.Words)
			continue
		}
		n += len(strings.Fields(s.Text))
	}
	return n
}
