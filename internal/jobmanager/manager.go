// Package jobmanager owns a pool of workers and is the entry point
// applications use to submit jobs and wait for them to finish.
//
// Creating a Manager spins up one worker per descriptor, wires every
// worker's peer table so work-stealing can see the whole pool, and
// starts each worker's goroutine. AddJob hands a callable to a worker
// chosen round-robin; the returned state can be composed into a
// dependency graph before SetReady is called on it (see the builder
// package for the fluent way to do this). A caller that wants to make
// progress while waiting, rather than block idle, uses
// AssistUntilJobDone or AssistUntilDone: both let the calling goroutine
// behave as an extra, un-pooled worker until the condition is met.
package jobmanager

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/internal/jobstate"
	"github.com/blacksail-games/falconjobs/internal/profiler"
	"github.com/blacksail-games/falconjobs/internal/signal"
	"github.com/blacksail-games/falconjobs/internal/worker"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

var (
	// ErrNoWorkers is returned by Create when the descriptor names zero
	// workers; there would be nothing to dispatch jobs to.
	ErrNoWorkers = errors.New("jobmanager: descriptor must name at least one worker")

	// ErrShutdown is returned by AddJob once Shutdown has been called; no
	// further jobs may be submitted to a shut-down manager.
	ErrShutdown = errors.New("jobmanager: manager has been shut down")
)

// defaultPollInterval is used when desc.AssistPollInterval is zero,
// e.g. when Create is called directly rather than through
// config.Config.ManagerDescriptor.
const defaultPollInterval = 100 * time.Microsecond

// Manager owns the worker table, the round-robin dispatch cursor, and
// the pool-wide signal every worker sleeps on.
type Manager struct {
	workers      []*worker.Worker
	signal       *signal.Pool
	sink         profiler.Sink
	pollInterval time.Duration // assist-loop sleep when no stealable job exists

	next     atomic.Uint64 // round-robin cursor for AddJob
	active   atomic.Int64  // number of workers currently running a job
	shutDown atomic.Bool
}

// Create builds and starts a pool of workers from desc. sink may be nil,
// in which case profiling events are simply dropped.
func Create(desc types.ManagerDescriptor, sink profiler.Sink) (*Manager, error) {
	if len(desc.Workers) == 0 {
		return nil, ErrNoWorkers
	}

	pollInterval := desc.AssistPollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	m := &Manager{
		signal:       signal.New(),
		sink:         sink,
		pollInterval: pollInterval,
	}

	m.workers = make([]*worker.Worker, len(desc.Workers))
	for i, wd := range desc.Workers {
		m.workers[i] = worker.New(i, wd, m.signal, m.observe, &m.active)
	}
	for _, w := range m.workers {
		w.SetPeers(m.workers)
	}
	for _, w := range m.workers {
		w.Start()
	}

	return m, nil
}

func (m *Manager) observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	if m.sink != nil {
		m.sink.Observe(entry, event, value1, value2)
	}
}

// WorkerCount reports how many workers this manager's pool contains.
func (m *Manager) WorkerCount() int { return len(m.workers) }

// ActiveWorkers reports how many workers are currently mid-job. Intended
// for telemetry; callers should not make scheduling decisions based on
// this number, since it can change the instant it's read.
func (m *Manager) ActiveWorkers() int64 { return m.active.Load() }

// AddJob pushes job onto the next worker in round-robin order, stamps
// debugTag for profiling display, and returns its state. The returned
// state is not ready until SetReady is called on it, either directly
// or by a ChainBuilder composing it into a larger graph.
func (m *Manager) AddJob(job func(), debugTag byte) (*jobstate.State, error) {
	if m.shutDown.Load() {
		return nil, ErrShutdown
	}

	idx := int(m.next.Add(1)-1) % len(m.workers)
	state := m.workers[idx].Push(job)
	state.SetDebugTag(debugTag)
	return state, nil
}

// AssistUntilJobDone lets the calling goroutine behave as an extra
// worker until state is done: it repeatedly scans every worker's queue
// for runnable work (without stealing logic beyond that uniform scan;
// unlike a dedicated worker, the assist thread has no queue of its own
// to prefer) and runs whatever it finds. Returns once state.IsDone().
//
// The source system's assist path was hardcoded to always drain worker
// 0's queue, relying on every job eventually reaching worker 0 through
// stealing, a correct but needlessly narrow scan. This implementation
// scans every worker in the pool each pass instead, since nothing about
// assisting requires favoring one worker's queue.
//
// When a pass finds no stealable job, the assist thread sleeps for
// pollInterval before retrying rather than spinning the CPU.
func (m *Manager) AssistUntilJobDone(state *jobstate.State) {
	for !state.IsDone() {
		entry, found := m.popAny()
		if !found {
			time.Sleep(m.pollInterval)
			continue
		}
		m.runAssisted(entry)
	}
}

// AssistUntilDone drains the pool: it keeps scanning every worker for
// runnable work until a full pass finds nothing, then returns. Unlike
// AssistUntilJobDone, there is no single state to wait on: the caller
// wants the whole current frontier of work finished, not just one job's
// dependency chain.
//
// Because new jobs can be added concurrently (e.g. from within a running
// job's callable), AssistUntilDone only guarantees the frontier present
// at the moment every worker's queue is simultaneously empty; it is the
// caller's responsibility not to race job submission against a
// concurrent AssistUntilDone if a stronger guarantee is needed.
func (m *Manager) AssistUntilDone() {
	for {
		entry, found := m.popAny()
		if !found {
			if m.allQueuesEmpty() {
				return
			}
			time.Sleep(m.pollInterval)
			continue
		}
		m.runAssisted(entry)
	}
}

func (m *Manager) popAny() (jobqueue.Entry, bool) {
	for _, w := range m.workers {
		if entry, found, _ := w.PopNext(false); found {
			return entry, true
		}
	}
	return jobqueue.Entry{}, false
}

func (m *Manager) allQueuesEmpty() bool {
	for _, w := range m.workers {
		if w.Len() > 0 {
			return false
		}
	}
	return true
}

func (m *Manager) runAssisted(entry jobqueue.Entry) {
	m.observe(entry, types.EventJobStart, uint64(len(m.workers)), uint64(entry.State.ID()))
	entry.Job()
	m.observe(entry, types.EventJobDone, uint64(len(m.workers)), 0)
	entry.State.MarkDone()
	m.observe(entry, types.EventJobRunAssisted, uint64(len(m.workers)), 0)
	m.signal.NotifyOne()
}

// Shutdown stops every worker. When finishJobs is true, it first assists
// the pool until the current frontier of work drains (AssistUntilDone)
// before stopping anyone, so no already-submitted job is abandoned
// mid-dependency-chain. It then runs in two passes, matching the source
// system's ordering: first every worker is asked to stop and woken (so
// none can be mid-sleep while a peer it might steal from is already torn
// down), then every worker's goroutine is waited on to exit. No further
// AddJob calls are accepted once Shutdown returns.
func (m *Manager) Shutdown(finishJobs bool) {
	m.shutDown.Store(true)

	if finishJobs {
		m.AssistUntilDone()
	}

	for _, w := range m.workers {
		w.Shutdown(false)
	}
	for _, w := range m.workers {
		w.Shutdown(true)
	}
}

// Stats is a point-in-time snapshot of pool-level counters, for the CLI
// and for tests.
type Stats struct {
	WorkerCount   int
	ActiveWorkers int64
}

// Status returns a snapshot of the pool's current state.
func (m *Manager) Status() Stats {
	return Stats{
		WorkerCount:   len(m.workers),
		ActiveWorkers: m.active.Load(),
	}
}

// String renders a short human-readable summary, used by the CLI's
// status command.
func (s Stats) String() string {
	return fmt.Sprintf("workers=%d active=%d", s.WorkerCount, s.ActiveWorkers)
}
