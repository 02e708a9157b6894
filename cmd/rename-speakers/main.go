// Command rename-speakers rewrites speaker labels in a persisted SRT
// artifact.
//
// Usage:
//
//	rename-speakers -file meeting.srt -map "SPEAKER_00=Alice" -map "SPEAKER_01=Bob"
//
// Only leading "LABEL:" tokens of subtitle text lines are replaced; block
// count, ordering and timestamps are preserved. The original file is backed
// up to {file}.bak unless -no-backup is given.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/speechforge/transcript-pipeline/internal/subtitle"
)

// mappingFlags collects repeated -map "OLD=NEW" flags in order.
type mappingFlags struct {
	pairs subtitle.SpeakerMap
}

func (m *mappingFlags) String() string {
	parts := make([]string, 0, len(m.pairs))
	for _, p := range m.pairs {
		parts = append(parts, p.Old+"="+p.New)
	}
	return strings.Join(parts, ",")
}

func (m *mappingFlags) Set(value string) error {
	old, newName, ok := strings.Cut(value, "=")
	if !ok || old == "" || newName == "" {
		return fmt.Errorf("expected OLD=NEW, got %q", value)
	}
	m.pairs = append(m.pairs, subtitle.Mapping{Old: old, New: newName})
	return nil
}

func main() {
	var (
		file     string
		output   string
		noBackup bool
		mappings mappingFlags
	)

	flag.Usage = func() {
		exe := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s -file <artifact.srt> -map OLD=NEW [-map OLD=NEW ...] [-output <path>] [-no-backup]\n\n", exe)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
	}
	flag.StringVar(&file, "file", "", "Path to the SRT artifact (required)")
	flag.StringVar(&output, "output", "", "Write result here instead of overwriting the source")
	flag.BoolVar(&noBackup, "no-backup", false, "Skip the {dest}.bak safety copy")
	flag.Var(&mappings, "map", "Speaker mapping OLD=NEW (repeatable)")
	flag.Parse()

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		flag.Usage()
		os.Exit(2)
	}
	if len(mappings.pairs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one -map is required")
		flag.Usage()
		os.Exit(2)
	}

	opts := subtitle.NewRenameOptions()
	opts.OutputPath = output
	opts.Backup = !noBackup

	result, err := subtitle.RenameSpeakers(file, mappings.pairs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
