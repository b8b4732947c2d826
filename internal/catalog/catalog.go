// Package catalog discovers candidate audio files for a batch run.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AudioFile describes one discovered input file. The path keeps the
// original name untouched, whatever script or encoding it uses.
type AudioFile struct {
	SourcePath string // absolute
	Name       string
	SizeBytes  int64
	Extension  string // lowercase, with leading dot
}

// Stem returns the file name without its extension. Output transcripts
// are named from this, never from a staged copy's name.
func (f AudioFile) Stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// DefaultExtensions returns the recognized audio extensions
// (lowercase, with leading dot).
func DefaultExtensions() map[string]bool {
	return map[string]bool{
		".mp3":  true,
		".m4a":  true,
		".wav":  true,
		".flac": true,
		".ogg":  true,
		".mp4":  true,
	}
}

// Discover lists files directly inside dir (non-recursive) whose extension
// case-insensitively matches exts. Entries come back ordered by name so
// repeated runs over an unchanged directory process files in the same
// order. An empty directory yields an empty slice, not an error.
func Discover(dir string, exts map[string]bool) ([]AudioFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}

	var files []AudioFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !exts[ext] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Deleted between ReadDir and Info; it would only be
			// skipped as missing later anyway.
			continue
		}

		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry.Name(), err)
		}

		files = append(files, AudioFile{
			SourcePath: abs,
			Name:       entry.Name(),
			SizeBytes:  info.Size(),
			Extension:  ext,
		})
	}

	return files, nil
}

// Resolve builds an AudioFile for a single known path, for files that
// arrive after the initial discovery pass. The extension is not checked
// here; callers filter before resolving.
func Resolve(path string) (AudioFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return AudioFile{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return AudioFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return AudioFile{}, fmt.Errorf("%s is a directory", path)
	}
	return AudioFile{
		SourcePath: abs,
		Name:       info.Name(),
		SizeBytes:  info.Size(),
		Extension:  strings.ToLower(filepath.Ext(info.Name())),
	}, nil
}
