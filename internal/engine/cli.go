package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// CLIEngine runs a whisper.cpp-compatible binary once per file. The
// binary writes the transcript next to the staged audio, which is
// reclaimed with the rest of the staging directory afterwards.
type CLIEngine struct {
	bin       string
	modelPath string
	size      ModelSize
	log       zerolog.Logger
}

// loadCLI resolves the binary and the model file up front so a bad
// install fails the run before any audio is touched.
func loadCLI(opts Options) (*CLIEngine, error) {
	bin := opts.BinPath
	if strings.ContainsRune(bin, os.PathSeparator) {
		if _, err := os.Stat(bin); err != nil {
			return nil, fmt.Errorf("whisper binary: %w", err)
		}
	} else {
		resolved, err := exec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("whisper binary %q not found in PATH: %w", bin, err)
		}
		bin = resolved
	}

	modelPath := ModelFile(opts.ModelDir, opts.Size)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}

	opts.Log.Info().
		Str("bin", bin).
		Str("model", modelPath).
		Msg("whisper cli engine loaded")

	return &CLIEngine{
		bin:       bin,
		modelPath: modelPath,
		size:      opts.Size,
		log:       opts.Log,
	}, nil
}

// ModelFile returns the conventional whisper.cpp model path for a size,
// e.g. models/ggml-medium.bin.
func ModelFile(dir string, size ModelSize) string {
	return filepath.Join(dir, fmt.Sprintf("ggml-%s.bin", size))
}

func (e *CLIEngine) Name() string  { return "whisper-cli" }
func (e *CLIEngine) Model() string { return string(e.size) }

// Transcribe invokes the binary on one staged file and reads back the
// text it emits. Blocks for the full length of the decode.
func (e *CLIEngine) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	outBase := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	args := e.buildArgs(audioPath, outBase, language)

	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper-cli: %w: %s", err, lastLine(stderr.String()))
	}

	text, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	return &Result{Text: string(text), Language: language}, nil
}

func (e *CLIEngine) buildArgs(audioPath, outBase, language string) []string {
	args := []string{
		"-m", e.modelPath,
		"-f", audioPath,
		"-otxt",
		"-of", outBase,
		"-nt",
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	return args
}

// lastLine trims a stderr dump to its final non-empty line, which is
// where whisper.cpp prints its actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
