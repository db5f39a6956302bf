package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

func TestCollectorCountsRunStolenAssisted(t *testing.T) {
	c := NewCollector(2)

	c.Observe(jobqueue.Entry{}, types.EventJobRun, 0, 0)
	c.Observe(jobqueue.Entry{}, types.EventJobStolen, 0, 0)
	c.Observe(jobqueue.Entry{}, types.EventJobRunAssisted, 2, 0)

	stats := c.Snapshot()
	assert.Equal(t, uint64(2), stats.JobsRun, "a plain JobRun plus the JobRun folded into JobRunAssisted")
	assert.Equal(t, uint64(1), stats.JobsStolen)
	assert.Equal(t, uint64(1), stats.JobsAssisted)
}

func TestCollectorTracksUsedAndAwokenMasks(t *testing.T) {
	c := NewCollector(4)

	c.Observe(jobqueue.Entry{}, types.EventWorkerUsed, 0, 0)
	c.Observe(jobqueue.Entry{}, types.EventWorkerUsed, 2, 0)
	c.Observe(jobqueue.Entry{}, types.EventWorkerAwoken, 1, 0)

	stats := c.Snapshot()
	assert.Equal(t, uint64(0b101), stats.UsedMask)
	assert.Equal(t, uint64(0b010), stats.AwokenMask)
}

func TestCollectorRecordsTimelineSpans(t *testing.T) {
	c := NewCollector(2)

	c.Observe(jobqueue.Entry{}, types.EventJobStart, 0, 7)
	c.Observe(jobqueue.Entry{}, types.EventJobDone, 0, 0)

	timelines := c.Timelines()
	a := assert.New(t)
	a.Len(timelines, 3) // 2 workers + 1 assist slot
	a.Len(timelines[0], 1)
	a.Equal(types.JobID(7), timelines[0][0].JobID)
	a.False(timelines[0][0].End.IsZero())
}

func TestCollectorClampsOutOfRangeWorkerIndexToAssistSlot(t *testing.T) {
	c := NewCollector(2)

	// Worker index 2 is out of range for a 2-worker pool (valid indices
	// 0, 1); the assist thread reports itself using the pool size as its
	// index, so it must land in the extra slot rather than panic.
	c.Observe(jobqueue.Entry{}, types.EventJobStart, 2, 99)

	timelines := c.Timelines()
	assert.Len(t, timelines[2], 1)
	assert.Equal(t, types.JobID(99), timelines[2][0].JobID)
}

type fakeSink struct {
	events []types.EventKind
}

func (f *fakeSink) Observe(entry jobqueue.Entry, event types.EventKind, v1, v2 uint64) {
	f.events = append(f.events, event)
}

func TestMultiSinkFansOutToEverySink(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{}
	m := NewMultiSink(a, b)

	m.Observe(jobqueue.Entry{}, types.EventJobRun, 0, 0)

	assert.Equal(t, []types.EventKind{types.EventJobRun}, a.events)
	assert.Equal(t, []types.EventKind{types.EventJobRun}, b.events)
}
