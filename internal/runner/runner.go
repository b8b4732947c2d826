// Package runner drives a batch of transcription jobs. Each discovered
// file moves through validate, stage, transcribe and write exactly once;
// a file that fails any step is recorded and the batch moves on. Only
// loading the engine and creating the output directory can abort a run,
// and both happen before the first job.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/batchscribe/internal/catalog"
	"github.com/snarg/batchscribe/internal/engine"
	"github.com/snarg/batchscribe/internal/metrics"
	"github.com/snarg/batchscribe/internal/report"
	"github.com/snarg/batchscribe/internal/staging"
	"github.com/snarg/batchscribe/internal/storage"
)

// Status is a job's position in its lifecycle. Terminal values are
// Succeeded, Failed, SkippedEmpty and SkippedMissing.
type Status string

const (
	StatusPending        Status = "pending"
	StatusStaging        Status = "staging"
	StatusTranscribing   Status = "transcribing"
	StatusWriting        Status = "writing"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusSkippedEmpty   Status = "skipped_empty"
	StatusSkippedMissing Status = "skipped_missing"
)

// Terminal reports whether a status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkippedEmpty, StatusSkippedMissing:
		return true
	}
	return false
}

// Stages a job can fail in.
const (
	StageStaging    = "staging"
	StageTranscribe = "transcribe"
	StageWrite      = "write"
)

// JobError records which stage a job failed in, wrapping the cause.
type JobError struct {
	Stage string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Job is one audio file's trip through the pipeline.
type Job struct {
	File       catalog.AudioFile
	Status     Status
	Err        error // non-nil only when Status is StatusFailed
	OutputPath string
	Elapsed    time.Duration
}

// Summary aggregates a finished batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
	Jobs      []Job
}

// Options configures a Runner.
type Options struct {
	Engine   engine.Engine
	Stager   *staging.Stager
	Store    *storage.TranscriptStore
	Language string
	Sink     report.Sink
	Log      zerolog.Logger
}

// Runner executes jobs sequentially against a single engine handle. The
// engine is never entered concurrently; there is exactly one job in
// flight at any time.
type Runner struct {
	engine   engine.Engine
	stager   *staging.Stager
	store    *storage.TranscriptStore
	language string
	sink     report.Sink
	log      zerolog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	return &Runner{
		engine:   opts.Engine,
		stager:   opts.Stager,
		store:    opts.Store,
		language: opts.Language,
		sink:     opts.Sink,
		log:      opts.Log,
	}
}

// Run processes files in order and reports the batch outcome. A
// cancelled context stops the batch before the next job starts; the
// job already in flight is left to finish.
func (r *Runner) Run(ctx context.Context, files []catalog.AudioFile) Summary {
	start := time.Now()
	summary := Summary{Total: len(files)}
	total := len(files)

	for i, f := range files {
		if ctx.Err() != nil {
			r.log.Warn().Int("remaining", total-i).Msg("batch interrupted")
			break
		}
		job := r.runJob(ctx, i+1, total, f)
		summary.Jobs = append(summary.Jobs, job)
		switch job.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}

	summary.Elapsed = time.Since(start)
	metrics.BatchesTotal.Inc()
	r.sink.BatchComplete(summary.Succeeded, summary.Failed, summary.Skipped)
	return summary
}

// RunOne processes a single file outside a batch, as watch mode does
// for late arrivals. Events carry index 1 of 1.
func (r *Runner) RunOne(ctx context.Context, f catalog.AudioFile) Job {
	return r.runJob(ctx, 1, 1, f)
}

func (r *Runner) runJob(ctx context.Context, index, total int, f catalog.AudioFile) Job {
	start := time.Now()
	r.sink.JobStart(index, total, f.Name)

	job := r.transcribeFile(ctx, f)
	job.Elapsed = time.Since(start)

	metrics.JobsTotal.WithLabelValues(string(job.Status)).Inc()
	if job.Status == StatusSucceeded {
		metrics.JobDuration.Observe(job.Elapsed.Seconds())
		metrics.AudioBytesTotal.Add(float64(f.SizeBytes))
	}

	r.sink.JobEnd(index, total, f.Name, string(job.Status), job.Elapsed)
	return job
}

// transcribeFile walks one file through the state machine. Every return
// path leaves the job in a terminal status and no staged copy behind.
func (r *Runner) transcribeFile(ctx context.Context, f catalog.AudioFile) Job {
	job := Job{File: f, Status: StatusPending}

	// The file may have been deleted between discovery and its turn.
	info, err := os.Stat(f.SourcePath)
	if err != nil {
		job.Status = StatusSkippedMissing
		r.sink.Error(fmt.Sprintf("%s: no longer exists, skipped", f.Name))
		return job
	}
	if info.Size() == 0 {
		job.Status = StatusSkippedEmpty
		r.sink.Error(fmt.Sprintf("%s: empty file, skipped", f.Name))
		return job
	}

	job.Status = StatusStaging
	staged, err := r.stager.Stage(f)
	if err != nil {
		return r.fail(job, StageStaging, err)
	}
	defer staged.Release()

	job.Status = StatusTranscribing
	res, err := r.engine.Transcribe(ctx, staged.Path, r.language)
	// Released before the write so no staged copy outlives the engine
	// call; the deferred Release is then a no-op.
	staged.Release()
	if err != nil {
		return r.fail(job, StageTranscribe, err)
	}

	job.Status = StatusWriting
	outPath, err := r.store.Write(f.Stem(), res.Text)
	if err != nil {
		return r.fail(job, StageWrite, err)
	}

	job.Status = StatusSucceeded
	job.OutputPath = outPath
	r.sink.Info(fmt.Sprintf("%s: transcript saved to %s", f.Name, outPath))
	return job
}

func (r *Runner) fail(job Job, stage string, err error) Job {
	job.Status = StatusFailed
	job.Err = &JobError{Stage: stage, Err: err}
	r.sink.Error(fmt.Sprintf("%s: %s failed: %v", job.File.Name, stage, err))
	return job
}
