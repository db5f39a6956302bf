// Package profiler turns the scheduler's raw event-observer callbacks
// into structured data: running counters, worker-used/awoken bitmasks,
// and a per-worker timeline of job start/end spans (plus one extra
// timeline for the assist thread). It is the sole coupling point between
// the execution core and anything that wants to watch it. Formatting an
// ASCII timeline, exporting Prometheus metrics, or shipping events to a
// remote collector are all downstream of the Collector defined here, not
// concerns the core package knows about.
package profiler

import (
	"sync"
	"time"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

// Sink receives profiling events as they occur. Implementations must be
// safe for concurrent use: the manager invokes Sink from every worker
// goroutine plus the assist thread.
type Sink interface {
	Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64)
}

// TimelineEntry records one job's execution span on one worker's
// timeline, for debugging/profiling display.
type TimelineEntry struct {
	JobID    types.JobID
	Start    time.Time
	End      time.Time
	DebugTag byte
}

// Collector is the in-process Sink: it accumulates counters, bitmasks,
// and per-worker timelines exactly as the source system's JobManager
// observer does.
type Collector struct {
	mu sync.Mutex

	jobsRun      uint64
	jobsStolen   uint64
	jobsAssisted uint64
	usedMask     uint64
	awokenMask   uint64

	timelines [][]TimelineEntry // one per worker, plus one extra slot for the assist thread

	firstJobTime time.Time
	hasPoppedJob bool
}

// NewCollector allocates a collector with workerCount+1 timelines; the
// extra slot tracks the assist thread, matching the source system's
// "one timeline per worker, plus one for assist" layout.
func NewCollector(workerCount int) *Collector {
	return &Collector{
		timelines: make([][]TimelineEntry, workerCount+1),
	}
}

// Observe implements Sink.
func (c *Collector) Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event {
	case types.EventJobRun:
		c.jobsRun++

	case types.EventJobStolen:
		c.jobsStolen++

	case types.EventJobRunAssisted:
		c.jobsAssisted++
		c.jobsRun++

	case types.EventWorkerAwoken:
		c.awokenMask |= bit(value1)

	case types.EventWorkerUsed:
		c.usedMask |= bit(value1)

	case types.EventJobPopped:
		if !c.hasPoppedJob {
			c.firstJobTime = time.Now()
			c.hasPoppedJob = true
		}

	case types.EventJobStart:
		idx := timelineIndex(value1, len(c.timelines))
		var tag byte
		if entry.State != nil {
			tag = entry.State.DebugTag()
		}
		c.timelines[idx] = append(c.timelines[idx], TimelineEntry{
			JobID:    types.JobID(value2),
			Start:    time.Now(),
			DebugTag: tag,
		})

	case types.EventJobDone:
		idx := timelineIndex(value1, len(c.timelines))
		entries := c.timelines[idx]
		if len(entries) > 0 {
			entries[len(entries)-1].End = time.Now()
		}
	}
}

func bit(n uint64) uint64 { return 1 << n }

func timelineIndex(workerIndex uint64, numTimelines int) int {
	if int(workerIndex) < numTimelines-1 {
		return int(workerIndex)
	}
	return numTimelines - 1
}

// Stats is a point-in-time snapshot of the collector's counters and
// masks, for the CLI's status command and for tests.
type Stats struct {
	JobsRun      uint64
	JobsStolen   uint64
	JobsAssisted uint64
	UsedMask     uint64
	AwokenMask   uint64
}

// Snapshot returns the collector's current counters.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		JobsRun:      c.jobsRun,
		JobsStolen:   c.jobsStolen,
		JobsAssisted: c.jobsAssisted,
		UsedMask:     c.usedMask,
		AwokenMask:   c.awokenMask,
	}
}

// Timelines returns a copy of every worker's (plus the assist thread's)
// recorded spans, in worker-index order.
func (c *Collector) Timelines() [][]TimelineEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]TimelineEntry, len(c.timelines))
	for i, entries := range c.timelines {
		cp := make([]TimelineEntry, len(entries))
		copy(cp, entries)
		out[i] = cp
	}
	return out
}
