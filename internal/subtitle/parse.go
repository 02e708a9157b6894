package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// ErrMalformed reports an artifact that cannot be parsed into well-formed
// subtitle blocks.
var ErrMalformed = errors.New("malformed subtitle artifact")

// Parse reads an SRT or VTT artifact back into segments. Text lines are
// kept verbatim (speaker prefixes stay inside Text), so rendering the
// parsed segments reproduces the artifact byte for byte up to millisecond
// rounding. Only SRT and VTT round-trip; other formats are render-only.
func Parse(content string, f Format) ([]transcript.Segment, error) {
	switch f {
	case FormatSRT:
		return parseBlocks(content, false)
	case FormatVTT:
		return parseBlocks(content, true)
	default:
		return nil, fmt.Errorf("format %q is not parseable", f)
	}
}

func parseBlocks(content string, vtt bool) ([]transcript.Segment, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	body := strings.TrimSpace(content)

	if vtt {
		header, rest, _ := strings.Cut(body, "\n")
		if !strings.HasPrefix(header, "WEBVTT") {
			return nil, fmt.Errorf("%w: missing WEBVTT header", ErrMalformed)
		}
		body = strings.TrimSpace(rest)
	}

	if body == "" {
		return nil, fmt.Errorf("%w: no subtitle blocks", ErrMalformed)
	}

	blocks := strings.Split(body, "\n\n")
	segments := make([]transcript.Segment, 0, len(blocks))
	for i, block := range blocks {
		seg, err := parseBlock(block)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrMalformed, i+1, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// parseBlock reads one block: an optional numeric index line, the timestamp
// line, then one or more text lines kept verbatim.
func parseBlock(block string) (transcript.Segment, error) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	// Skip the numeric index line when present.
	if len(lines) > 1 {
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			lines = lines[1:]
		}
	}
	if len(lines) < 2 {
		return transcript.Segment{}, errors.New("too few lines")
	}

	startStr, endStr, ok := strings.Cut(lines[0], " --> ")
	if !ok {
		return transcript.Segment{}, fmt.Errorf("missing timestamp arrow in %q", lines[0])
	}
	start, err := ParseTimestamp(strings.TrimSpace(startStr))
	if err != nil {
		return transcript.Segment{}, err
	}
	end, err := ParseTimestamp(strings.TrimSpace(endStr))
	if err != nil {
		return transcript.Segment{}, err
	}
	if end < start {
		return transcript.Segment{}, fmt.Errorf("end %s before start %s", endStr, startStr)
	}

	return transcript.Segment{
		Start: start,
		End:   end,
		Text:  strings.Join(lines[1:], "\n"),
	}, nil
}
