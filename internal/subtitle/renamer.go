package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// ErrUnknownLabel reports a SpeakerMap key that names no label present in
// the target artifact. Rejected before any file is touched.
var ErrUnknownLabel = errors.New("speaker map key not present in artifact")

// SpeakerMap is an ordered old-label → new-name mapping. It applies only to
// leading label tokens of subtitle text lines, never to free text.
type SpeakerMap []Mapping

// Mapping is a single rename pair.
type Mapping struct {
	Old string
	New string
}

// RenameOptions configures a rename operation.
type RenameOptions struct {
	// OutputPath receives the rewritten artifact. Empty means overwrite
	// the source in place.
	OutputPath string

	// Backup controls whether the destination is copied aside before
	// being overwritten. NewRenameOptions defaults it to on.
	Backup bool
}

// NewRenameOptions returns the default options: overwrite in place with a
// backup.
func NewRenameOptions() RenameOptions {
	return RenameOptions{Backup: true}
}

// RenameResult reports what a rename did.
type RenameResult struct {
	OutputPath   string `json:"output_path"`
	BackupPath   string `json:"backup_path,omitempty"`
	Replacements int    `json:"replacements_made"`
}

// RenameSpeakers rewrites speaker labels in a persisted SRT-like artifact.
//
// The artifact is parsed into blocks first (ErrMalformed when that fails)
// and every map key must appear as a leading label in at least one block
// (ErrUnknownLabel otherwise). Only a leading "OLD:" token of a text line
// is replaced; occurrences inside free text are left alone. Replacement
// never changes block count, ordering or timestamps.
//
// With Backup set, the existing destination is copied to {dest}.bak and
// read back for verification before the destination is overwritten; if the
// backup cannot be written or verified the destination stays untouched.
func RenameSpeakers(srtPath string, speakerMap SpeakerMap, opts RenameOptions) (*RenameResult, error) {
	data, err := os.ReadFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	content := string(data)

	// Parse up front: renaming a file we cannot parse would corrupt it.
	segments, err := Parse(content, FormatSRT)
	if err != nil {
		return nil, err
	}

	if err := validateSpeakerMap(speakerMap, segments); err != nil {
		return nil, err
	}

	renamed, replacements := applySpeakerMap(content, speakerMap)

	dest := opts.OutputPath
	if dest == "" {
		dest = srtPath
	}

	result := &RenameResult{OutputPath: dest, Replacements: replacements}

	if opts.Backup {
		backupPath, err := backupDestination(dest)
		if err != nil {
			return nil, err
		}
		result.BackupPath = backupPath
	}

	if err := WriteArtifact(dest, renamed); err != nil {
		return nil, err
	}
	return result, nil
}

// validateSpeakerMap rejects duplicate and unknown keys early (before any
// file is modified). Known labels are the leading "LABEL:" tokens of the
// parsed blocks.
func validateSpeakerMap(speakerMap SpeakerMap, segments []transcript.Segment) error {
	if len(speakerMap) == 0 {
		return errors.New("speaker map is empty")
	}

	present := make(map[string]bool)
	for _, seg := range segments {
		for _, line := range strings.Split(seg.Text, "\n") {
			if label, ok := leadingLabel(line); ok {
				present[label] = true
			}
		}
	}

	seen := make(map[string]bool)
	for _, m := range speakerMap {
		if m.Old == "" || m.New == "" {
			return errors.New("speaker map entries must be non-empty")
		}
		if seen[m.Old] {
			return fmt.Errorf("duplicate speaker map key %q", m.Old)
		}
		seen[m.Old] = true
		if !present[m.Old] {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, m.Old)
		}
	}
	return nil
}

// leadingLabel extracts a "LABEL:" prefix from a text line. Timestamp
// lines are never labels even though they contain colons.
func leadingLabel(line string) (string, bool) {
	if strings.Contains(line, " --> ") {
		return "", false
	}
	label, _, ok := strings.Cut(line, ":")
	if !ok || label == "" {
		return "", false
	}
	return label, true
}

// applySpeakerMap rewrites leading label tokens line by line, preserving
// everything else byte for byte.
func applySpeakerMap(content string, speakerMap SpeakerMap) (string, int) {
	replace := make(map[string]string, len(speakerMap))
	for _, m := range speakerMap {
		replace[m.Old] = m.New
	}

	lines := strings.Split(content, "\n")
	replacements := 0
	for i, line := range lines {
		label, ok := leadingLabel(line)
		if !ok {
			continue
		}
		newName, mapped := replace[label]
		if !mapped {
			continue
		}
		lines[i] = newName + line[len(label):]
		replacements++
	}
	return strings.Join(lines, "\n"), replacements
}

// backupDestination copies the existing destination to {dest}.bak and
// verifies the copy is readable and identical. A destination that does not
// exist yet needs no backup.
func backupDestination(dest string) (string, error) {
	original, err := os.ReadFile(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read destination for backup: %w", err)
	}

	backupPath := dest + ".bak"
	if err := os.WriteFile(backupPath, original, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	check, err := os.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to verify backup: %w", err)
	}
	if !bytes.Equal(original, check) {
		return "", errors.New("backup verification failed: content mismatch")
	}
	return backupPath, nil
}
