// Package staging copies audio files into isolated scratch directories
// under randomized ASCII names before they are handed to the engine.
// Some speech tooling chokes on paths outside its expected encoding, so
// the engine never sees an original path.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/snarg/batchscribe/internal/catalog"
)

// StagedFile is a scratch copy of one audio file, alive for a single job.
type StagedFile struct {
	Source catalog.AudioFile
	Path   string // randomized ASCII basename inside a fresh temp dir

	dir  string
	once sync.Once
}

// Release removes the staged copy and its containing directory. Safe to
// call more than once; callers defer it as soon as Stage succeeds.
func (s *StagedFile) Release() {
	s.once.Do(func() {
		os.RemoveAll(s.dir)
	})
}

// Stager creates staged copies under root. An empty root uses the
// system temp directory.
type Stager struct {
	root string
}

// NewStager returns a Stager placing scratch directories under root.
func NewStager(root string) *Stager {
	return &Stager{root: root}
}

// Stage copies src byte for byte into a fresh temporary directory under
// a name like temp_audio_3fa85f64.wav, preserving only the extension.
// The copy is removed via Release; on error nothing is left behind.
func (s *Stager) Stage(src catalog.AudioFile) (*StagedFile, error) {
	dir, err := os.MkdirTemp(s.root, "batchscribe-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	id := uuid.New()
	name := fmt.Sprintf("temp_audio_%x%s", id[:4], src.Extension)
	path := filepath.Join(dir, name)

	if err := copyFile(src.SourcePath, path); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("stage %s: %w", src.Name, err)
	}

	return &StagedFile{Source: src, Path: path, dir: dir}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	return nil
}
