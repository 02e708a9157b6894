package subtitle

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

func sampleSegments() []transcript.Segment {
	return []transcript.Segment{
		{Start: 0, End: 2.5, Text: "Good morning everyone"},
		{Start: 2.5, End: 5, Text: "Let's get started"},
	}
}

func labeledSegments() []transcript.Segment {
	return []transcript.Segment{
		{Start: 0, End: 2.5, Text: "Good morning everyone", Speaker: "SPEAKER_00"},
		{Start: 2.5, End: 5, Text: "Thanks for joining", Speaker: "SPEAKER_01"},
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		sep     byte
		want    string
	}{
		{0, ',', "00:00:00,000"},
		{1.5, ',', "00:00:01,500"},
		{61.042, ',', "00:01:01,042"},
		{3661.0, '.', "01:01:01.000"},
		{0.0004, ',', "00:00:00,000"},
		{0.0006, ',', "00:00:00,001"},
		{-2, ',', "00:00:00,000"},
	}
	for _, c := range cases {
		if got := FormatTimestamp(c.seconds, c.sep); got != c.want {
			t.Errorf("FormatTimestamp(%v, %q) = %q, want %q", c.seconds, c.sep, got, c.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"00:00:01,500", 1.5, true},
		{"00:01:01.042", 61.042, true},
		{"01:00:00,000", 3600, true},
		{"00:60:00,000", 0, false},
		{"00:00:61,000", 0, false},
		{"garbage", 0, false},
		{"00:00,000", 0, false},
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseTimestamp(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", c.in)
		}
	}
}

func TestRenderSRTExact(t *testing.T) {
	got, err := Render(Document{Segments: sampleSegments()}, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:02,500\nGood morning everyone\n\n" +
		"2\n00:00:02,500 --> 00:00:05,000\nLet's get started\n"
	if got != want {
		t.Errorf("SRT mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderVTTExact(t *testing.T) {
	got, err := Render(Document{Segments: labeledSegments()}, FormatVTT)
	if err != nil {
		t.Fatal(err)
	}
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:02.500\nSPEAKER_00: Good morning everyone\n\n" +
		"2\n00:00:02.500 --> 00:00:05.000\nSPEAKER_01: Thanks for joining\n"
	if got != want {
		t.Errorf("VTT mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestRoundTripSRT(t *testing.T) {
	original, err := Render(Document{Segments: labeledSegments()}, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(original, FormatSRT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	again, err := Render(Document{Segments: parsed}, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	if again != original {
		t.Errorf("round trip not stable:\nfirst:\n%q\nsecond:\n%q", original, again)
	}
}

func TestRoundTripVTT(t *testing.T) {
	original, err := Render(Document{Segments: sampleSegments()}, FormatVTT)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(original, FormatVTT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	again, err := Render(Document{Segments: parsed}, FormatVTT)
	if err != nil {
		t.Fatal(err)
	}
	if again != original {
		t.Errorf("round trip not stable:\nfirst:\n%q\nsecond:\n%q", original, again)
	}
}

func TestParseKeepsSpeakerPrefixInText(t *testing.T) {
	content, err := Render(Document{Segments: labeledSegments()}, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(content, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	if parsed[0].Text != "SPEAKER_00: Good morning everyone" {
		t.Errorf("Text = %q, want verbatim labeled line", parsed[0].Text)
	}
	if parsed[0].Speaker != "" {
		t.Errorf("Speaker = %q, want empty for parsed artifacts", parsed[0].Speaker)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
		format  Format
	}{
		{"empty", "", FormatSRT},
		{"whitespace only", "  \n\n  ", FormatSRT},
		{"missing arrow", "1\n00:00:00,000 00:00:01,000\ntext", FormatSRT},
		{"bad timestamp", "1\n00:00:xx,000 --> 00:00:01,000\ntext", FormatSRT},
		{"end before start", "1\n00:00:05,000 --> 00:00:01,000\ntext", FormatSRT},
		{"vtt without header", "1\n00:00:00.000 --> 00:00:01.000\ntext", FormatVTT},
		{"block without text", "1\n00:00:00,000 --> 00:00:01,000", FormatSRT},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse(c.content, c.format); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", c.content, err)
			}
		})
	}
}

func TestParseCRLFAndMultilineText(t *testing.T) {
	content := "1\r\n00:00:00,000 --> 00:00:02,000\r\nline one\r\nline two\r\n"
	parsed, err := Parse(content, FormatSRT)
	if err != nil {
		t.Fatal(err)
	}
	if parsed[0].Text != "line one\nline two" {
		t.Errorf("Text = %q", parsed[0].Text)
	}
}

func TestRenderJSONPlainMetadata(t *testing.T) {
	segs := []transcript.Segment{
		transcript.SegmentFromWords([]transcript.Word{
			{Text: "one", Start: 0, End: 1},
			{Text: "two", Start: 1, End: 2},
		}, ""),
	}
	out, err := Render(Document{Segments: segs, Duration: 2, Language: "en"}, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
		Metadata struct {
			Duration     float64 `json:"duration"`
			Language     string  `json:"language"`
			WordCount    *int    `json:"word_count"`
			SpeakerCount *int    `json:"speaker_count"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.WordCount == nil || *doc.Metadata.WordCount != 2 {
		t.Errorf("word_count = %v, want 2", doc.Metadata.WordCount)
	}
	if doc.Metadata.SpeakerCount != nil {
		t.Error("speaker_count must be absent on plain runs")
	}
	if doc.Metadata.Language != "en" || doc.Metadata.Duration != 2 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
}

func TestRenderJSONDiarizedMetadata(t *testing.T) {
	out, err := Render(Document{
		Segments:           labeledSegments(),
		Duration:           5,
		Diarized:           true,
		SpeakerCount:       2,
		UnassignedSegments: 1,
	}, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Metadata struct {
			WordCount          *int `json:"word_count"`
			SpeakerCount       *int `json:"speaker_count"`
			UnassignedSegments *int `json:"unassigned_segments"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.SpeakerCount == nil || *doc.Metadata.SpeakerCount != 2 {
		t.Errorf("speaker_count = %v, want 2", doc.Metadata.SpeakerCount)
	}
	if doc.Metadata.UnassignedSegments == nil || *doc.Metadata.UnassignedSegments != 1 {
		t.Errorf("unassigned_segments = %v, want 1", doc.Metadata.UnassignedSegments)
	}
	if doc.Metadata.WordCount != nil {
		t.Error("word_count must be absent on diarized runs")
	}
}

func TestRenderText(t *testing.T) {
	out, err := Render(Document{Segments: labeledSegments()}, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	want := "SPEAKER_00: Good morning everyone\nSPEAKER_01: Thanks for joining\n"
	if out != want {
		t.Errorf("text = %q, want %q", out, want)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"srt", "SRT", "vtt", "json", "txt", "text"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("ParseFormat(docx) succeeded, want error")
	}
	if !strings.Contains(FormatVTT.Ext(), "vtt") {
		t.Error("Ext mismatch")
	}
}
