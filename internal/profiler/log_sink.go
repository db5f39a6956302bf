package profiler

import (
	"log/slog"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

// LogSink writes a debug-level log line per event. Useful for local runs
// and tests; far too noisy for production use at anything past a
// handful of workers, which is what Collector and GRPCSink are for.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink wraps a logger, defaulting to slog.Default() when nil.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

// Observe implements Sink.
func (s *LogSink) Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	attrs := []any{"event", event.String(), "value1", value1, "value2", value2}
	if entry.State != nil {
		attrs = append(attrs, "job_id", entry.State.ID())
	}
	s.log.Debug("profile event", attrs...)
}

// MultiSink fans one event out to every sink it wraps, in order. A slow
// or blocking sink in the list will stall the others; wrap anything
// that might block (a GRPCSink under network trouble) so it doesn't
// starve the worker goroutine calling Observe.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a fan-out over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Observe implements Sink.
func (m *MultiSink) Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	for _, sink := range m.sinks {
		sink.Observe(entry, event, value1, value2)
	}
}
