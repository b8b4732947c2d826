package report

import (
	"math"
	"time"

	"github.com/rs/zerolog"
)

// LogSink renders batch events through zerolog. With a file writer in
// the logger's writer chain this is also the run log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink wraps a logger as a Sink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Info(msg string) {
	s.log.Info().Msg(msg)
}

func (s *LogSink) Error(msg string) {
	s.log.Error().Msg(msg)
}

func (s *LogSink) JobStart(index, total int, filename string) {
	s.log.Info().
		Int("index", index).
		Int("total", total).
		Str("file", filename).
		Msg("job start")
}

func (s *LogSink) JobEnd(index, total int, filename, status string, elapsed time.Duration) {
	ev := s.log.Info()
	switch status {
	case "failed":
		ev = s.log.Error()
	case "skipped_empty", "skipped_missing":
		ev = s.log.Warn()
	}
	ev.
		Int("index", index).
		Int("total", total).
		Str("file", filename).
		Str("status", status).
		Float64("elapsed_seconds", round1(elapsed.Seconds())).
		Msg("job end")
}

func (s *LogSink) BatchComplete(succeeded, failed, skipped int) {
	s.log.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("skipped", skipped).
		Msg("batch complete")
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
