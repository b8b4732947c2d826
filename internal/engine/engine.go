// Package engine wraps external speech-to-text backends behind a single
// interface. A handle is loaded once per run and invoked synchronously,
// one file at a time; nothing here is safe for concurrent callers.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Engine is the interface for loaded speech-to-text backends.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
	Name() string  // "whisper-cli", "whisper-server"
	Model() string // model size for logs
}

// Result is the common transcription result from any backend. The
// pipeline only consumes Text; the rest is carried for logging.
type Result struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds, 0 if unknown
}

// ModelSize selects the whisper model variant.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

// ParseModelSize validates a model size name.
func ParseModelSize(s string) (ModelSize, error) {
	switch ModelSize(s) {
	case ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge:
		return ModelSize(s), nil
	}
	return "", fmt.Errorf("unknown model size %q (want tiny, base, small, medium or large)", s)
}

// Backend names accepted by Load.
const (
	BackendCLI    = "cli"
	BackendServer = "server"
)

// ParseBackend validates an engine backend name.
func ParseBackend(s string) (string, error) {
	switch s {
	case BackendCLI, BackendServer:
		return s, nil
	}
	return "", fmt.Errorf("unknown engine backend %q (want cli or server)", s)
}

// Options configures Load.
type Options struct {
	Backend string
	Size    ModelSize

	// cli backend
	BinPath  string // binary name or path, resolved via PATH when bare
	ModelDir string // holds ggml-{size}.bin

	// server backend
	URL     string
	APIKey  string
	Timeout time.Duration

	Log zerolog.Logger
}

// Load constructs the engine handle for the configured backend. It is
// called once per run, before any file is processed; a failure here
// aborts the whole run.
func Load(opts Options) (Engine, error) {
	if _, err := ParseModelSize(string(opts.Size)); err != nil {
		return nil, err
	}
	switch opts.Backend {
	case BackendCLI:
		return loadCLI(opts)
	case BackendServer:
		return loadServer(opts)
	}
	return nil, fmt.Errorf("unknown engine backend %q", opts.Backend)
}
