package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServerEngine calls an OpenAI-compatible /v1/audio/transcriptions
// endpoint, e.g. a local faster-whisper server.
type ServerEngine struct {
	base   string
	apiKey string
	size   ModelSize
	client *http.Client
	log    zerolog.Logger
}

// serverResponse is the parsed verbose_json body.
type serverResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// loadServer probes the endpoint's model listing so an unreachable or
// misconfigured server fails the run up front, mirroring a local model
// load failure.
func loadServer(opts Options) (*ServerEngine, error) {
	e := &ServerEngine{
		base:   strings.TrimRight(opts.URL, "/"),
		apiKey: opts.APIKey,
		size:   opts.Size,
		client: &http.Client{Timeout: opts.Timeout},
		log:    opts.Log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.base+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create probe request: %w", err)
	}
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe engine server: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine server %s returned status %d", e.base, resp.StatusCode)
	}

	opts.Log.Info().Str("url", e.base).Str("model", string(opts.Size)).Msg("whisper server engine loaded")
	return e, nil
}

func (e *ServerEngine) Name() string  { return "whisper-server" }
func (e *ServerEngine) Model() string { return string(e.size) }

func (e *ServerEngine) authorize(req *http.Request) {
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
}

// Transcribe uploads one audio file as multipart/form-data and returns
// the parsed result.
func (e *ServerEngine) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model", string(e.size))
	if language != "" {
		w.WriteField("language", language)
	}
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine server error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed serverResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Result{Text: parsed.Text, Language: parsed.Language, Duration: parsed.Duration}, nil
}
