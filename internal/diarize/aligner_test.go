package diarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

func tseg(start, end float64, text string) transcript.Segment {
	return transcript.Segment{Start: start, End: end, Text: text}
}

func TestAlignLargestOverlapWins(t *testing.T) {
	segments := []transcript.Segment{tseg(0, 10, "hello")}
	diarization := []Segment{
		{Speaker: "spk_a", Start: 0, End: 3},
		{Speaker: "spk_b", Start: 3, End: 10},
	}

	al := Align(segments, diarization)
	require.Len(t, al.Segments, 1)
	// spk_b overlaps 7s vs spk_a's 3s; spk_b appeared second in the stream.
	assert.Equal(t, "SPEAKER_01", al.Segments[0].Speaker)
}

func TestAlignTieBreaksToEarliestDiarizationStart(t *testing.T) {
	segments := []transcript.Segment{tseg(2, 6, "tied")}
	diarization := []Segment{
		{Speaker: "late", Start: 4, End: 8},
		{Speaker: "early", Start: 0, End: 4},
	}

	al := Align(segments, diarization)
	require.Len(t, al.Segments, 1)
	// Both overlap exactly 2s. "early" starts first, and after sorting it is
	// also first in the stream, so it holds the tie and the 00 label.
	assert.Equal(t, "SPEAKER_00", al.Segments[0].Speaker)
}

func TestAlignContainedSegment(t *testing.T) {
	segments := []transcript.Segment{tseg(5, 7, "inside")}
	diarization := []Segment{{Speaker: "only", Start: 0, End: 60}}

	al := Align(segments, diarization)
	require.Len(t, al.Segments, 1)
	assert.Equal(t, "SPEAKER_00", al.Segments[0].Speaker)
	assert.Equal(t, 1, al.Stats.Speakers)
}

func TestAlignNoIntersectionGetsUnassigned(t *testing.T) {
	segments := []transcript.Segment{
		tseg(0, 5, "covered"),
		tseg(100, 105, "orphan"),
	}
	diarization := []Segment{{Speaker: "spk", Start: 0, End: 10}}

	al := Align(segments, diarization)
	require.Len(t, al.Segments, 2)
	assert.Equal(t, "SPEAKER_00", al.Segments[0].Speaker)
	assert.Equal(t, transcript.Unassigned, al.Segments[1].Speaker)
	assert.Equal(t, 1, al.Stats.UnassignedSegments)

	// Unassigned spans never contribute to speaking time.
	assert.NotContains(t, al.Stats.SpeakingTime, transcript.Unassigned)
}

func TestAlignEmptyDiarizationLeavesAllUnassigned(t *testing.T) {
	segments := []transcript.Segment{tseg(0, 5, "a"), tseg(5, 10, "b")}

	al := Align(segments, nil)
	require.Len(t, al.Segments, 2)
	for _, s := range al.Segments {
		assert.Equal(t, transcript.Unassigned, s.Speaker)
	}
	assert.Equal(t, 2, al.Stats.UnassignedSegments)
	assert.Equal(t, 0, al.Stats.Speakers)
}

func TestAlignLabelsFollowDiarizationStreamOrder(t *testing.T) {
	// The transcript meets "second" before "first", but canonical labels are
	// assigned by diarization start order, so "first" is still SPEAKER_00.
	segments := []transcript.Segment{
		tseg(20, 25, "later speaker talks"),
		tseg(0, 5, "earlier speaker talks"),
	}
	diarization := []Segment{
		{Speaker: "second", Start: 20, End: 30},
		{Speaker: "first", Start: 0, End: 10},
	}

	al := Align(segments, diarization)
	require.Len(t, al.Segments, 2)
	assert.Equal(t, "SPEAKER_01", al.Segments[0].Speaker)
	assert.Equal(t, "SPEAKER_00", al.Segments[1].Speaker)
}

func TestAlignSpeakingTimeSumsLabeledSegments(t *testing.T) {
	segments := []transcript.Segment{
		tseg(0, 4, "a"),
		tseg(4, 10, "b"),
		tseg(10, 12, "c"),
	}
	diarization := []Segment{
		{Speaker: "x", Start: 0, End: 10},
		{Speaker: "y", Start: 10, End: 20},
	}

	al := Align(segments, diarization)
	assert.InDelta(t, 10.0, al.Stats.SpeakingTime["SPEAKER_00"], 1e-9)
	assert.InDelta(t, 2.0, al.Stats.SpeakingTime["SPEAKER_01"], 1e-9)
	assert.Equal(t, 2, al.Stats.Speakers)
}

func TestAlignTouchingBoundariesDoNotOverlap(t *testing.T) {
	// A transcript segment that only touches a diarization segment's edge
	// has zero overlap and stays unassigned.
	segments := []transcript.Segment{tseg(10, 12, "edge")}
	diarization := []Segment{{Speaker: "spk", Start: 0, End: 10}}

	al := Align(segments, diarization)
	assert.Equal(t, transcript.Unassigned, al.Segments[0].Speaker)
}
