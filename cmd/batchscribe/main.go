package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/batchscribe/internal/catalog"
	"github.com/snarg/batchscribe/internal/config"
	"github.com/snarg/batchscribe/internal/engine"
	"github.com/snarg/batchscribe/internal/metrics"
	"github.com/snarg/batchscribe/internal/report"
	"github.com/snarg/batchscribe/internal/runner"
	"github.com/snarg/batchscribe/internal/staging"
	"github.com/snarg/batchscribe/internal/storage"
	"github.com/snarg/batchscribe/internal/watch"
)

var version = "dev"

func main() {
	startTime := time.Now()

	// Flags
	var o config.Overrides
	flag.StringVar(&o.EnvFile, "env-file", "", "dotenv file to load (default .env when present)")
	flag.StringVar(&o.InputDir, "input", "", "directory scanned for audio files")
	flag.StringVar(&o.OutputDir, "output", "", "directory transcripts are written to")
	flag.StringVar(&o.ModelSize, "model", "", "model size: tiny, base, small, medium or large")
	flag.StringVar(&o.Language, "language", "", "language hint passed to the engine")
	flag.StringVar(&o.Backend, "engine", "", "engine backend: cli or server")
	flag.StringVar(&o.LogLevel, "log-level", "", "log level")
	flag.StringVar(&o.LogDir, "log-dir", "", "when set, also write a run log file here")
	watchFlag := flag.Bool("watch", false, "keep running and transcribe files that appear later")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "watch" {
			o.Watch = watchFlag
		}
	})

	// Config
	cfg, err := config.Load(o)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger: console always, plus a run log file keyed by start time
	// when a log dir is configured.
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	if cfg.LogDir != "" {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			early.Fatal().Err(err).Msg("failed to create log dir")
		}
		logPath := filepath.Join(cfg.LogDir, startTime.Format("200601021504")+".log")
		logFile, err := os.Create(logPath)
		if err != nil {
			early.Fatal().Err(err).Msg("failed to create run log file")
		}
		defer logFile.Close()
		out = zerolog.MultiLevelWriter(out, logFile)
	}

	runID := uuid.NewString()[:8]
	log := zerolog.New(out).With().Timestamp().Str("run_id", runID).Logger().Level(level)
	log.Info().Str("version", version).Str("model", cfg.ModelSize).
		Str("engine", cfg.Backend).Str("language", cfg.Language).
		Msg("batchscribe starting")
	metrics.MarkRun(runID)

	// Context for stopping between files
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discovery
	files, err := catalog.Discover(cfg.InputDir, catalog.DefaultExtensions())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to discover audio files")
	}
	if len(files) == 0 && !cfg.Watch {
		log.Fatal().Str("input_dir", cfg.InputDir).Msg("no audio files found")
	}
	log.Info().Int("count", len(files)).Msg("audio files discovered")
	for _, f := range files {
		log.Info().Str("file", f.Name).Str("size", report.FormatBytes(f.SizeBytes)).Msg("queued")
	}

	// Output directory
	store := storage.NewTranscriptStore(cfg.OutputDir)
	if err := store.Ensure(); err != nil {
		log.Fatal().Err(err).Msg("failed to create output dir")
	}

	// Engine, loaded once before any job
	eng, err := engine.Load(engine.Options{
		Backend:  cfg.Backend,
		Size:     engine.ModelSize(cfg.ModelSize),
		BinPath:  cfg.WhisperBin,
		ModelDir: cfg.WhisperModelDir,
		URL:      cfg.EngineURL,
		APIKey:   cfg.EngineAPIKey,
		Log:      log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load engine")
	}

	run := runner.New(runner.Options{
		Engine:   eng,
		Stager:   staging.NewStager(cfg.StagingDir),
		Store:    store,
		Language: cfg.Language,
		Sink:     report.NewLogSink(log.With().Str("component", "batch").Logger()),
		Log:      log.With().Str("component", "runner").Logger(),
	})

	summary := run.Run(ctx, files)
	log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("all done")

	if cfg.Watch && ctx.Err() == nil {
		watchArrivals(ctx, cfg, run, log)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteSnapshot(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Msg("failed to write metrics snapshot")
		}
	}

	log.Info().Dur("elapsed", time.Since(startTime)).Msg("batchscribe stopped")
}

// watchArrivals transcribes files that appear after the initial batch,
// one at a time through the same runner, until the context ends.
func watchArrivals(ctx context.Context, cfg *config.Config, run *runner.Runner, log zerolog.Logger) {
	w := watch.New(cfg.InputDir, catalog.DefaultExtensions(), log.With().Str("component", "watcher").Logger())
	if err := w.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start watcher")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watch mode stopped")
			return
		case f := <-w.Files():
			run.RunOne(ctx, f)
		}
	}
}
