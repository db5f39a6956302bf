// Package jobqueue implements the per-worker ordered container of
// pending job entries.
//
// Insertion is always at the front; popping scans front-to-back. That
// gives the owning worker LIFO locality (the job it just pushed is the
// next one it pops) and gives a thief the same front-to-back scan over
// someone else's queue; whichever side gets there first takes from
// whichever end its scan order favors, which in this implementation is
// also newest-first. A Chase-Lev deque (owner pushes/pops the bottom,
// thieves steal from the top) would give thieves the oldest entries
// instead; that refinement is not required here.
package jobqueue

import (
	"container/list"
	"sync"

	"github.com/blacksail-games/falconjobs/internal/jobstate"
)

// Entry pairs a callable with its coordination state.
type Entry struct {
	Job   func()
	State *jobstate.State
}

// Queue is a mutex-guarded, ordered sequence of Entry. The zero value is
// not usable; construct with New.
type Queue struct {
	mu    sync.Mutex
	items *list.List
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{items: list.New()}
}

// PushFront inserts a new entry at the front of the queue.
func (q *Queue) PushFront(e Entry) {
	q.mu.Lock()
	q.items.PushFront(e)
	q.mu.Unlock()
}

// PopRunnable scans the queue front-to-back looking for the first
// runnable entry (ready, uncancelled, dependencies satisfied).
//
// Along the way, any entry awaiting cancellation is removed and its
// state marked done, so its dependants still become runnable, rather
// than left to block the scan forever. This happens under the same lock
// acquisition as the rest of the scan, matching the source system's
// behavior of interleaving cancellation cleanup with the runnable
// search.
//
// Returns the entry and true if one was found. The third return value
// reports whether any entry was left behind with unmet dependencies,
// for callers that want to distinguish "empty queue" from "nothing
// runnable yet".
func (q *Queue) PopRunnable() (Entry, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	anyUnsatisfied := false

	for e := q.items.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(Entry)

		switch {
		case entry.State.AwaitingCancellation():
			entry.State.MarkDone()
			q.items.Remove(e)
		case entry.State.AreDependenciesMet() && !entry.State.IsDone():
			q.items.Remove(e)
			return entry, true, anyUnsatisfied
		default:
			anyUnsatisfied = true
		}

		e = next
	}

	return Entry{}, false, anyUnsatisfied
}

// Len reports the number of entries currently queued. Used by the
// manager to decide when AssistUntilDone may return.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
