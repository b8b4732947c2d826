package staging

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/snarg/batchscribe/internal/catalog"
)

func writeSource(t *testing.T, name string, data []byte) catalog.AudioFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	f, err := catalog.Resolve(path)
	if err != nil {
		t.Fatalf("resolve source: %v", err)
	}
	return f
}

var stagedName = regexp.MustCompile(`^temp_audio_[0-9a-f]{8}\.wav$`)

func TestStage_ASCIISafeName(t *testing.T) {
	src := writeSource(t, "日本語の録音.wav", []byte("payload"))
	stager := NewStager(t.TempDir())

	staged, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer staged.Release()

	base := filepath.Base(staged.Path)
	if !stagedName.MatchString(base) {
		t.Errorf("staged name %q does not match temp_audio_<hex>.wav", base)
	}
	scratch := filepath.Join(filepath.Base(filepath.Dir(staged.Path)), base)
	for _, r := range scratch {
		if r > 127 {
			t.Errorf("staged path component %q contains non-ASCII rune %q", scratch, r)
		}
	}
}

func TestStage_CopiesBytes(t *testing.T) {
	data := []byte{0x00, 0xFF, 0x10, 0x20, 0x30}
	src := writeSource(t, "clip.wav", data)
	stager := NewStager(t.TempDir())

	staged, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer staged.Release()

	got, err := os.ReadFile(staged.Path)
	if err != nil {
		t.Fatalf("read staged: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("staged bytes = %v, want %v", got, data)
	}
}

func TestStage_FreshDirPerCall(t *testing.T) {
	src := writeSource(t, "clip.wav", []byte("x"))
	stager := NewStager(t.TempDir())

	a, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer a.Release()
	b, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer b.Release()

	if filepath.Dir(a.Path) == filepath.Dir(b.Path) {
		t.Errorf("both staged copies share dir %s", filepath.Dir(a.Path))
	}
}

func TestRelease_RemovesDir(t *testing.T) {
	root := t.TempDir()
	src := writeSource(t, "clip.wav", []byte("x"))
	stager := NewStager(root)

	staged, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	staged.Release()

	if _, err := os.Stat(filepath.Dir(staged.Path)); !os.IsNotExist(err) {
		t.Errorf("staging dir still present after Release: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging root not empty after Release: %v", entries)
	}

	// Second Release is a no-op.
	staged.Release()
}

func TestStage_MissingSource(t *testing.T) {
	root := t.TempDir()
	src := writeSource(t, "clip.wav", []byte("x"))
	if err := os.Remove(src.SourcePath); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	stager := NewStager(root)
	if _, err := stager.Stage(src); err == nil {
		t.Fatal("expected error staging a vanished source")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed staging left entries behind: %v", entries)
	}
}

func TestStage_PreservesExtensionOnly(t *testing.T) {
	src := writeSource(t, "アーカイブ.FLAC", []byte("x"))
	stager := NewStager(t.TempDir())

	staged, err := stager.Stage(src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer staged.Release()

	if got := filepath.Ext(staged.Path); got != ".flac" {
		t.Errorf("staged extension = %q, want .flac", got)
	}
}
