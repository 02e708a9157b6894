package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS<sep>mmm, rounded to the
// nearest millisecond. SRT uses ',' as the separator, WebVTT uses '.'.
func FormatTimestamp(seconds float64, sep byte) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

// ParseTimestamp parses HH:MM:SS,mmm or HH:MM:SS.mmm into seconds.
func ParseTimestamp(ts string) (float64, error) {
	sep := ","
	if !strings.Contains(ts, ",") {
		sep = "."
	}
	timePart, msPart, ok := strings.Cut(ts, sep)
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	fields := strings.Split(timePart, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	h, err1 := strconv.Atoi(fields[0])
	m, err2 := strconv.Atoi(fields[1])
	s, err3 := strconv.Atoi(fields[2])
	ms, err4 := strconv.Atoi(msPart)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	if m > 59 || s > 59 || ms > 999 || h < 0 || m < 0 || s < 0 || ms < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
