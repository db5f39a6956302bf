// Package worker implements the scheduler's execution unit: a private
// job queue, an OS thread, and the work-stealing pop that lets one
// worker take runnable jobs out of an idle peer's queue.
//
// How it works:
//
//	Each Worker runs its own goroutine, locked to an OS thread, executing
//	the following loop:
//	  1. Under the pool-wide signal lock, keep popping from its own
//	     queue, then from peers if stealing is enabled, sleeping on the
//	     signal's condition variable whenever nothing is runnable.
//	  2. On stop, mark itself shut down and exit.
//	  3. Otherwise run the popped callable, mark its state done, and
//	     wake one sleeping peer (a dependant may have just become
//	     runnable).
package worker

import (
	"runtime"
	"sync/atomic"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/internal/jobstate"
	"github.com/blacksail-games/falconjobs/internal/signal"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

// Observer receives profiling events as a worker (or the manager's
// assist path) pops, starts, finishes, and runs jobs. entry may be the
// zero Entry for events that are not job-specific (WorkerAwoken).
// value1 is the worker index (or the pool size, for the assist thread);
// value2 carries the job id for JobStart.
type Observer func(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64)

// Worker owns one queue and one OS thread. It must be constructed with
// New, given its peer table via SetPeers, and started with Start before
// any job can be run.
type Worker struct {
	index int
	desc  types.WorkerDescriptor

	queue  *jobqueue.Queue
	peers  []*Worker
	signal *signal.Pool

	observer Observer
	active   *atomic.Int64

	stop        atomic.Bool
	hasShutDown atomic.Bool
	done        chan struct{}
}

// New constructs a worker at the given index within its pool. active is
// a shared counter incremented while any worker in the pool is running
// a job, retained as optional telemetry per the source system, and
// never read by the scheduler itself.
func New(index int, desc types.WorkerDescriptor, pool *signal.Pool, observer Observer, active *atomic.Int64) *Worker {
	return &Worker{
		index:    index,
		desc:     desc,
		queue:    jobqueue.New(),
		signal:   pool,
		observer: observer,
		active:   active,
		done:     make(chan struct{}),
	}
}

// SetPeers gives the worker its view of every worker in the pool
// (including itself; stealing from oneself is tolerated, it's simply a
// wasted scan since PopRunnable already found nothing there). Must be
// called before Start.
func (w *Worker) SetPeers(peers []*Worker) { w.peers = peers }

// Index returns this worker's position in the pool's worker table.
func (w *Worker) Index() int { return w.index }

// Len reports the number of entries currently queued on this worker,
// used by the manager to decide when AssistUntilDone may return.
func (w *Worker) Len() int { return w.queue.Len() }

// Push creates a new, not-yet-ready job state, wraps job into an entry,
// and inserts it at the front of this worker's queue. The caller (the
// manager, directly or via the builder) is responsible for calling
// SetReady once the job's dependants have been wired.
func (w *Worker) Push(job func()) *jobstate.State {
	state := jobstate.New(w.signal)
	entry := jobqueue.Entry{Job: job, State: state}
	w.queue.PushFront(entry)
	return state
}

// PopNext attempts to pop a runnable entry from this worker's own
// queue; if none is found and useStealing is set, it scans every peer's
// queue in index order (starting from index 0, including self) and
// returns the first runnable entry found there instead. Emits JobPopped
// on any successful pop, and additionally JobStolen when the entry came
// from a peer rather than this worker's own queue.
func (w *Worker) PopNext(useStealing bool) (entry jobqueue.Entry, found bool, stolen bool) {
	entry, found, _ = w.queue.PopRunnable()
	if found {
		w.emit(entry, types.EventJobPopped, uint64(w.index), 0)
		return entry, true, false
	}

	if !useStealing {
		return jobqueue.Entry{}, false, false
	}

	for _, peer := range w.peers {
		entry, found, _ = peer.queue.PopRunnable()
		if found {
			w.emit(entry, types.EventJobPopped, uint64(w.index), 0)
			if peer != w {
				w.emit(entry, types.EventJobStolen, uint64(w.index), 0)
			}
			return entry, true, peer != w
		}
	}

	return jobqueue.Entry{}, false, false
}

// Start launches the worker's goroutine.
func (w *Worker) Start() {
	go w.loop()
}

// Shutdown requests that the worker stop, waking it repeatedly (in case
// it's already asleep on the signal) until it acknowledges, then waits
// for its goroutine to exit if wait is true.
func (w *Worker) Shutdown(wait bool) {
	w.stop.Store(true)

	for !w.hasShutDown.Load() {
		w.signal.NotifyAll()
		runtime.Gosched()
	}

	if wait {
		<-w.done
	}
}

func (w *Worker) emit(entry jobqueue.Entry, event types.EventKind, v1, v2 uint64) {
	if w.observer != nil {
		w.observer(entry, event, v1, v2)
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	// Best-effort, non-fatal: pin this goroutine to its OS thread so a
	// name or affinity hint applied by a host application actually
	// sticks. The scheduler core has no opinion on how naming/affinity
	// hints are applied; that's an external, OS-specific collaborator.
	runtime.LockOSThread()

	for {
		var entry jobqueue.Entry
		var found bool

		w.signal.Lock()
		for !w.stop.Load() {
			entry, found, _ = w.PopNext(w.desc.WorkStealing)
			if found {
				break
			}
			w.emit(jobqueue.Entry{}, types.EventWorkerAwoken, uint64(w.index), 0)
			w.signal.Wait()
		}
		w.signal.Unlock()

		if !found {
			// Only reachable via the stop flag: the loop above only
			// exits without a job when w.stop is set.
			w.hasShutDown.Store(true)
			return
		}

		w.active.Add(1)
		w.emit(entry, types.EventWorkerUsed, uint64(w.index), 0)
		w.emit(entry, types.EventJobStart, uint64(w.index), uint64(entry.State.ID()))

		entry.Job()

		w.emit(entry, types.EventJobDone, uint64(w.index), 0)
		entry.State.MarkDone()
		w.emit(entry, types.EventJobRun, uint64(w.index), 0)

		w.signal.NotifyOne()
		w.active.Add(-1)
	}
}
