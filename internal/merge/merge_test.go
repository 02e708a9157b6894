package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechforge/transcript-pipeline/internal/chunker"
	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

func word(text string, start, end float64) transcript.Word {
	return transcript.Word{Text: text, Start: start, End: end, Confidence: 0.9}
}

func segment(words ...transcript.Word) transcript.Segment {
	return transcript.SegmentFromWords(words, "")
}

func TestMergeSingleChunkPassesThrough(t *testing.T) {
	parts := []Part{{
		Chunk:    chunker.Chunk{Index: 0, Start: 0, End: 60},
		Segments: []transcript.Segment{segment(word("hello", 1, 2), word("world", 2, 3))},
	}}

	merged := Merge(parts, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "hello world", merged[0].Text)
}

func TestMergeEmptyInput(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Empty(t, Merge([]Part{}, nil))
}

func TestMergeSplitsOverlapAtMidpoint(t *testing.T) {
	// Chunks [0,120] and [105,130]: shared window [105,120], midpoint 112.5.
	parts := []Part{
		{
			Chunk: chunker.Chunk{Index: 0, Start: 0, End: 120},
			Segments: []transcript.Segment{
				segment(word("alpha", 10, 11)),
				segment(word("bravo", 106, 107), word("charlie", 113, 114)),
			},
		},
		{
			Chunk: chunker.Chunk{Index: 1, Start: 105, End: 130},
			Segments: []transcript.Segment{
				segment(word("bravo", 106.2, 107.1), word("charlie", 113.1, 114), word("delta", 125, 126)),
			},
		},
	}

	merged := Merge(parts, nil)

	var texts []string
	for _, s := range merged {
		texts = append(texts, s.Text)
	}
	// First chunk keeps words before 112.5, second keeps words at or after.
	assert.Equal(t, []string{"alpha", "bravo", "charlie delta"}, texts)

	// Monotone ordering by start time.
	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i].Start, merged[i-1].Start)
	}
}

func TestMergeDropsFullySupersededSegments(t *testing.T) {
	// Every word of the first chunk's last segment lands past the midpoint,
	// so that segment must disappear rather than survive empty.
	parts := []Part{
		{
			Chunk: chunker.Chunk{Index: 0, Start: 0, End: 120},
			Segments: []transcript.Segment{
				segment(word("early", 50, 51)),
				segment(word("late", 115, 116), word("later", 117, 118)),
			},
		},
		{
			Chunk: chunker.Chunk{Index: 1, Start: 105, End: 130},
			Segments: []transcript.Segment{
				segment(word("late", 115.1, 116), word("later", 117, 118), word("end", 128, 129)),
			},
		},
	}

	merged := Merge(parts, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "early", merged[0].Text)
	assert.Equal(t, "late later end", merged[1].Text)
	for _, s := range merged {
		assert.NotEmpty(t, s.Text)
	}
}

func TestMergeClippedSegmentBoundsFollowSurvivingWords(t *testing.T) {
	parts := []Part{
		{
			Chunk: chunker.Chunk{Index: 0, Start: 0, End: 120},
			Segments: []transcript.Segment{
				segment(word("keep", 110, 111), word("drop", 114, 115)),
			},
		},
		{
			Chunk: chunker.Chunk{Index: 1, Start: 105, End: 130},
			Segments: []transcript.Segment{
				segment(word("drop", 114.2, 115), word("tail", 121, 122)),
			},
		},
	}

	merged := Merge(parts, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "keep", merged[0].Text)
	assert.InDelta(t, 110, merged[0].Start, 1e-9)
	assert.InDelta(t, 111, merged[0].End, 1e-9)
	assert.Equal(t, "drop tail", merged[1].Text)
	assert.InDelta(t, 114.2, merged[1].Start, 1e-9)
}

func TestMergeNonOverlappingChunksConcatenate(t *testing.T) {
	parts := []Part{
		{
			Chunk:    chunker.Chunk{Index: 0, Start: 0, End: 60},
			Segments: []transcript.Segment{segment(word("one", 10, 11))},
		},
		{
			Chunk:    chunker.Chunk{Index: 1, Start: 60, End: 120},
			Segments: []transcript.Segment{segment(word("two", 70, 71))},
		},
	}

	merged := Merge(parts, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "one", merged[0].Text)
	assert.Equal(t, "two", merged[1].Text)
}

func TestMergeSegmentsWithoutWordDetail(t *testing.T) {
	// Word-less segments are treated as one word spanning the segment.
	parts := []Part{
		{
			Chunk: chunker.Chunk{Index: 0, Start: 0, End: 120},
			Segments: []transcript.Segment{
				{Start: 100, End: 104, Text: "kept whole"},
				{Start: 113, End: 118, Text: "superseded"},
			},
		},
		{
			Chunk: chunker.Chunk{Index: 1, Start: 105, End: 130},
			Segments: []transcript.Segment{
				{Start: 113, End: 118, Text: "replacement"},
			},
		},
	}

	merged := Merge(parts, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "kept whole", merged[0].Text)
	assert.Equal(t, "replacement", merged[1].Text)
}

func TestAgreementDistanceIdenticalTexts(t *testing.T) {
	d := agreementDistance("the quick brown fox jumps", "the quick brown fox jumps")
	assert.Equal(t, 0, d)
}

func TestAgreementDistanceDivergentTexts(t *testing.T) {
	a := "the quarterly revenue numbers look strong this time"
	b := "completely unrelated gibberish about weather patterns tomorrow"
	assert.Greater(t, agreementDistance(a, b), agreementThreshold)
}

func TestAgreementDistanceEmptySides(t *testing.T) {
	// One empty side means one chunk heard nothing in the window; that
	// still yields a distance, not a crash.
	assert.Greater(t, agreementDistance("", "something here"), 0)
	assert.Equal(t, 0, agreementDistance("", ""))
}
