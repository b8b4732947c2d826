package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// TranscriptStore writes transcript text files into the output directory.
type TranscriptStore struct {
	dir string
}

// NewTranscriptStore creates a store rooted at dir.
func NewTranscriptStore(dir string) *TranscriptStore {
	return &TranscriptStore{dir: dir}
}

// Ensure creates the output directory if it does not exist.
func (s *TranscriptStore) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.dir, err)
	}
	return nil
}

// Path returns where the transcript for a given source stem lives.
func (s *TranscriptStore) Path(stem string) string {
	return filepath.Join(s.dir, stem+".txt")
}

// Write stores text as UTF-8 under {dir}/{stem}.txt, replacing any
// previous content. The write goes to a temp file first and is renamed
// into place so a crash never leaves a truncated transcript behind.
func (s *TranscriptStore) Write(stem, text string) (string, error) {
	path := s.Path(stem)

	tmp, err := os.CreateTemp(s.dir, ".transcript-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}

// Dir returns the output directory path.
func (s *TranscriptStore) Dir() string { return s.dir }
