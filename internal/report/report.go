// Package report defines the event contract between the batch runner
// and whatever renders progress. The runner only ever talks to a Sink,
// so tests swap in a capturing one and the CLI wires up logging.
package report

import "time"

// Sink receives progress and outcome events from a batch run.
type Sink interface {
	Info(msg string)
	Error(msg string)
	JobStart(index, total int, filename string)
	JobEnd(index, total int, filename, status string, elapsed time.Duration)
	BatchComplete(succeeded, failed, skipped int)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Info(msg string) {
	for _, s := range m {
		s.Info(msg)
	}
}

func (m MultiSink) Error(msg string) {
	for _, s := range m {
		s.Error(msg)
	}
}

func (m MultiSink) JobStart(index, total int, filename string) {
	for _, s := range m {
		s.JobStart(index, total, filename)
	}
}

func (m MultiSink) JobEnd(index, total int, filename, status string, elapsed time.Duration) {
	for _, s := range m {
		s.JobEnd(index, total, filename, status, elapsed)
	}
}

func (m MultiSink) BatchComplete(succeeded, failed, skipped int) {
	for _, s := range m {
		s.BatchComplete(succeeded, failed, skipped)
	}
}
