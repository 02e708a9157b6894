// Package subtitle renders labeled transcripts into SRT, WebVTT, JSON and
// plain-text artifacts, parses SRT/VTT artifacts back, and rewrites speaker
// labels in persisted artifacts.
package subtitle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// Format identifies an artifact format.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// Ext returns the file extension for the format, without a dot.
func (f Format) Ext() string {
	return string(f)
}

// Document is a transcript prepared for rendering, together with the run
// metadata the JSON format carries.
type Document struct {
	Segments []transcript.Segment

	// Duration is the source audio duration in seconds.
	Duration float64

	// Language is the canonical language tag, may be empty.
	Language string

	// Diarized selects speaker-aware metadata (speaker_count and
	// unassigned_segments instead of word_count).
	Diarized           bool
	SpeakerCount       int
	UnassignedSegments int
}

// Render produces the artifact content for the requested format.
func Render(doc Document, f Format) (string, error) {
	switch f {
	case FormatSRT:
		return renderBlocks(doc.Segments, ','), nil
	case FormatVTT:
		return "WEBVTT\n\n" + renderBlocks(doc.Segments, '.'), nil
	case FormatJSON:
		return renderJSON(doc)
	case FormatText:
		return renderText(doc.Segments), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", f)
	}
}

// cueLine is the text line of one subtitle block: "SPEAKER_00: text" when a
// speaker label is present, bare text otherwise.
func cueLine(s transcript.Segment) string {
	if s.Speaker != "" {
		return s.Speaker + ": " + s.Text
	}
	return s.Text
}

func renderBlocks(segments []transcript.Segment, sep byte) string {
	blocks := make([]string, 0, len(segments))
	for i, s := range segments {
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s",
			i+1,
			FormatTimestamp(s.Start, sep),
			FormatTimestamp(s.End, sep),
			cueLine(s)))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// jsonSegment keeps the JSON artifact stable regardless of internal word
// detail: words are deliberately omitted from the persisted form.
type jsonSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type jsonMetadata struct {
	Duration           float64 `json:"duration"`
	Language           string  `json:"language,omitempty"`
	WordCount          *int    `json:"word_count,omitempty"`
	SpeakerCount       *int    `json:"speaker_count,omitempty"`
	UnassignedSegments *int    `json:"unassigned_segments,omitempty"`
}

type jsonDocument struct {
	Segments []jsonSegment `json:"segments"`
	Metadata jsonMetadata  `json:"metadata"`
}

func renderJSON(doc Document) (string, error) {
	out := jsonDocument{
		Segments: make([]jsonSegment, 0, len(doc.Segments)),
		Metadata: jsonMetadata{Duration: doc.Duration, Language: doc.Language},
	}
	for _, s := range doc.Segments {
		out.Segments = append(out.Segments, jsonSegment{
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			Speaker:    s.Speaker,
			Confidence: s.Confidence,
		})
	}

	if doc.Diarized {
		speakers := doc.SpeakerCount
		unassigned := doc.UnassignedSegments
		out.Metadata.SpeakerCount = &speakers
		out.Metadata.UnassignedSegments = &unassigned
	} else {
		words := transcript.WordCount(doc.Segments)
		out.Metadata.WordCount = &words
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON artifact: %w", err)
	}
	return string(data) + "\n", nil
}

func renderText(segments []transcript.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(cueLine(s))
		b.WriteByte('\n')
	}
	return b.String()
}
