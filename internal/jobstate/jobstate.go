// Package jobstate implements the coordination record shared between a
// job's submitter, the worker that eventually runs it, and any jobs that
// depend on it.
//
// A State is the only thing kept alive once a job is enqueued: it
// carries readiness, completion, cancellation, and dependency-counting,
// and is referenced by every party with a stake in the job's outcome.
// Go's garbage collector handles the shared-ownership lifetime the
// source system manages with reference counting: dependants simply
// hold pointers, and a State survives as long as anything reachable
// still points to it.
package jobstate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/blacksail-games/falconjobs/pkg/types"
)

// nextID assigns job identifiers process-wide, for debugging and
// profiling display only.
var nextID uint64

// pollInterval is how often Wait re-checks completion between sleeps.
const pollInterval = 10 * time.Microsecond

// notifier is the minimal interface State needs from the pool-wide
// signal: SetReady wakes any worker that might now find this job (or one
// of its dependants) runnable.
type notifier interface {
	NotifyAll()
}

// State is the mutable coordination record for one job. The zero value
// is not usable; construct with New.
type State struct {
	id       types.JobID
	debugTag byte

	ready  atomic.Bool
	done   atomic.Bool
	cancel atomic.Bool

	dependencies atomic.Int64

	mu         sync.Mutex
	dependants []*State

	signal notifier
}

// New constructs a State not yet ready, not done, with zero
// dependencies. signal is the pool-wide condition variable that
// SetReady broadcasts on; it may be nil for states constructed outside
// of a live pool (e.g. in isolated tests of jobstate itself).
func New(signal notifier) *State {
	return &State{
		id:     types.JobID(atomic.AddUint64(&nextID, 1)),
		signal: signal,
	}
}

// ID returns this job's process-wide debug identifier.
func (s *State) ID() types.JobID { return s.id }

// DebugTag returns the single-character profiling tag, or 0 if none was
// set.
func (s *State) DebugTag() byte { return s.debugTag }

// SetDebugTag stamps the profiling tag. Called once, by whatever created
// the job (Manager.AddJob), before the state is shared further.
func (s *State) SetDebugTag(tag byte) { s.debugTag = tag }

// SetReady marks the job eligible for execution and wakes every
// sleeping worker, since any of them might now find this job, or one
// freed up by a sibling's completion, runnable.
func (s *State) SetReady() {
	s.ready.Store(true)
	if s.signal != nil {
		s.signal.NotifyAll()
	}
}

// IsDone reports whether the job has completed: its callable has finished
// running, or it was cancelled and removed by a queue scan.
func (s *State) IsDone() bool { return s.done.Load() }

// Cancel requests that the job be skipped if it has not yet started.
// Cancellation never interrupts a job that is already running.
func (s *State) Cancel() { s.cancel.Store(true) }

// AwaitingCancellation reports whether Cancel has been called. Exported
// for the worker/jobqueue package's pop-and-scan logic; not part of the
// caller-facing API.
func (s *State) AwaitingCancellation() bool { return s.cancel.Load() }

// Wait polls for completion, sleeping roughly pollInterval between
// checks. If maxWait is non-zero, Wait returns once that budget has
// elapsed regardless of completion. Waiting does not assist; the
// preferred pattern for a caller that wants to make progress while
// waiting is Manager.AssistUntilJobDone.
func (s *State) Wait(maxWait time.Duration) {
	start := time.Now()
	for !s.IsDone() {
		time.Sleep(pollInterval)
		if maxWait != 0 && time.Since(start) > maxWait {
			return
		}
	}
}

// AddDependant registers other as a job that must wait for this job to
// complete: other's dependency counter is incremented, and this job's
// completion will later decrement it. Must be called before this job is
// marked ready; registering after SetReady races with a worker that
// may already be running (or have completed) this job.
func (s *State) AddDependant(other *State) {
	s.mu.Lock()
	s.dependants = append(s.dependants, other)
	s.mu.Unlock()

	other.dependencies.Add(1)
}

// AreDependenciesMet reports whether the job is ready and every
// registered predecessor has completed.
func (s *State) AreDependenciesMet() bool {
	if !s.ready.Load() {
		return false
	}
	return s.dependencies.Load() <= 0
}

// MarkDone finalizes the job: every dependant's counter is decremented
// first, then done is stored with release semantics, so a dependant
// that becomes runnable as a result always observes this job as
// complete. This is an internal transition driven by the worker (after
// running the callable, or after discovering a cancelled entry during a
// queue scan); external callers should never call it directly.
func (s *State) MarkDone() {
	s.mu.Lock()
	dependants := s.dependants
	s.mu.Unlock()

	for _, d := range dependants {
		d.dependencies.Add(-1)
	}

	s.done.Store(true)
}
