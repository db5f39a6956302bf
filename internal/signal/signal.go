// Package signal provides the single global sleep/wake primitive shared
// by every worker in a manager's pool.
//
// A lone condition variable for the whole pool is simpler than
// per-worker signaling and adequate because the scan for stealable work
// is already O(workers): a worker that wakes and finds nothing runnable
// just re-sleeps. Wakeups are broadcast; this can produce thundering-herd
// wakeups under load, which is an accepted tradeoff; per-worker
// signaling would avoid them at the cost of more bookkeeping.
package signal

import "sync"

// Pool is the pool-wide signal mutex + condition variable for one
// manager's worker pool. The zero value is not usable; construct with
// New.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// New constructs a ready-to-use Pool signal.
func New() *Pool {
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Lock acquires the signal mutex. Callers scanning for runnable work
// under the global signal must hold this lock for the whole scan, so
// that a SetReady racing with a worker's decision to sleep cannot be
// lost between the scan and the Wait call.
func (p *Pool) Lock() { p.mu.Lock() }

// Unlock releases the signal mutex.
func (p *Pool) Unlock() { p.mu.Unlock() }

// Wait blocks on the condition variable. The caller must hold the lock
// (via Lock) before calling Wait; Wait releases it for the duration of
// the sleep and reacquires it before returning.
func (p *Pool) Wait() { p.cond.Wait() }

// NotifyAll wakes every worker blocked in Wait. Used by SetReady, since
// any sleeping worker might now have a runnable job.
func (p *Pool) NotifyAll() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// NotifyOne wakes a single worker blocked in Wait. Used after a job
// completes, so a sleeping worker can look for any dependant that
// completion released; only one worker is woken even when several
// dependants became runnable.
func (p *Pool) NotifyOne() {
	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}
