package radcap

import (
	"encoding/json"
	"fmt"
	"os"
)

// TestEntry is one record of the test set description
type TestEntry struct {
	FilePaths []string `json:"file_paths"`
	Captions  []string `json:"captions"`
}

// ImagePath returns the first candidate file path
func (e TestEntry) ImagePath() (string, error) {
	if len(e.FilePaths) == 0 {
		return "", fmt.Errorf("test entry has no file paths")
	}
	return e.FilePaths[0], nil
}

// Reference returns the first human-written caption
func (e TestEntry) Reference() (string, error) {
	if len(e.Captions) == 0 {
		return "", fmt.Errorf("test entry has no captions")
	}
	return e.Captions[0], nil
}

// LoadTestSet reads a JSON array of test entries
func LoadTestSet(path string) ([]TestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test set: %w", err)
	}

	var entries []TestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse test set %s: %w", path, err)
	}

	return entries, nil
}

// Window returns entries[start:end] with out-of-range bounds clamped to the
// slice, so a window past the end yields no entries instead of an error.
func Window(entries []TestEntry, start, end int) []TestEntry {
	if start < 0 {
		start = 0
	}
	if end > len(entries) {
		end = len(entries)
	}
	if start >= end {
		return nil
	}
	return entries[start:end]
}
