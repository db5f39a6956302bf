// Package builder implements a fluent helper for constructing dependency
// graphs of jobs: linear chains, "together" groups that fan out and
// later join, and nested combinations of both.
//
// A Builder tracks just enough state to wire dependencies as each call
// comes in, rather than building an explicit graph structure up front:
//
//	Do(a).Then().Do(b).Then().
//	    Together().
//	        Do(c).
//	        Do(d).
//	        Do(e).
//	    Close().
//	Then().Do(f)
//
// produces b depending on a, c/d/e all depending on b and all gating f,
// matching the diamond shape: a -> b -> {c, d, e} -> f.
package builder

import (
	"errors"

	"github.com/blacksail-games/falconjobs/internal/jobmanager"
	"github.com/blacksail-games/falconjobs/internal/jobstate"
)

// ErrExhausted is reported (via Err once Failed is true, not as a return
// value, matching the fluent API's "errors surface at Failed() time"
// design) when a
// Builder's fixed-size node pool runs out of room. A Builder that hits
// this immediately cancels every job it has created so far and stops
// acting on further calls.
var ErrExhausted = errors.New("builder: node pool exhausted")

// node is the builder's internal bookkeeping unit. It is not a job
// itself (jobs live in the manager) but tracks one call's contribution
// to the graph being built.
type node struct {
	job             *jobstate.State
	isGroup         bool
	groupDependency *node
}

// Builder is not safe for concurrent use; a single goroutine is expected
// to drive one chain from construction through Go or Fail. The zero
// value is not usable; construct with New.
type Builder struct {
	mgr *jobmanager.Manager

	pool     []node
	poolNext int

	stack []*node // tracks the currently open Together() groups; index 0 is a sentinel root
	all   []*jobstate.State

	last       *node
	dependency *node

	failed bool
	cause  error
}

// New constructs a Builder submitting jobs to mgr, with room for up to
// maxNodes Do/Together calls. Exceeding that capacity fails the whole
// chain rather than panicking or silently dropping jobs.
func New(mgr *jobmanager.Manager, maxNodes int) *Builder {
	b := &Builder{
		mgr:  mgr,
		pool: make([]node, maxNodes),
	}
	b.stack = []*node{{}} // sentinel root, never a real group
	return b
}

func (b *Builder) alloc() *node {
	if b.poolNext >= len(b.pool) {
		return nil
	}
	n := &b.pool[b.poolNext]
	b.poolNext++
	return n
}

// Do submits job to the manager and links it into the chain: if Then()
// promoted a prior node to dependency, job depends on it; if the
// enclosing Together() group has a dependency of its own, job also
// depends on that (so every member of a group inherits whatever the
// group itself was waiting on). debugTag is attached to the created job
// state for profiling display.
func (b *Builder) Do(job func(), debugTag byte) *Builder {
	if b.failed {
		return b
	}

	owner := b.stack[len(b.stack)-1]

	n := b.alloc()
	if n == nil {
		b.fail(ErrExhausted)
		return b
	}

	state, err := b.mgr.AddJob(job, debugTag)
	if err != nil {
		b.fail(err)
		return b
	}
	n.job = state
	b.all = append(b.all, state)

	if b.dependency != nil {
		b.dependency.job.AddDependant(state)
		b.dependency = nil
	}

	if owner.isGroup {
		state.AddDependant(owner.job)
		if owner.groupDependency != nil {
			owner.groupDependency.job.AddDependant(state)
		}
	}

	b.last = n
	return b
}

// Together opens a group: every Do call until the matching Close joins
// the group, and the group's own placeholder job (a no-op) only
// completes once all of them have. A subsequent Then() lets the whole
// group gate the next Do, exactly like a single job would.
func (b *Builder) Together(debugTag byte) *Builder {
	if b.failed {
		return b
	}

	n := b.alloc()
	if n == nil {
		b.fail(ErrExhausted)
		return b
	}

	n.isGroup = true
	n.groupDependency = b.dependency

	state, err := b.mgr.AddJob(func() {}, debugTag)
	if err != nil {
		b.fail(err)
		return b
	}
	n.job = state
	b.all = append(b.all, state)

	b.last = n
	b.dependency = nil

	b.stack = append(b.stack, n)
	return b
}

// Then promotes the most recently pushed node to a dependency for the
// next Do call, and restores last to whatever that node's own group
// dependency was (so a second Then() in a row, or a Then() right after
// a Close(), composes correctly rather than losing track of the chain).
func (b *Builder) Then() *Builder {
	if b.failed {
		return b
	}

	b.dependency = b.last
	if b.dependency != nil {
		b.last = b.dependency.groupDependency
	} else {
		b.last = nil
	}
	return b
}

// Close ends the innermost open Together() group. After Close, the
// group's own placeholder job becomes last, so a following Then() gates
// on the whole group rather than on whichever Do happened to run last.
func (b *Builder) Close() *Builder {
	if b.failed {
		return b
	}

	if len(b.stack) > 0 {
		owner := b.stack[len(b.stack)-1]
		if owner.isGroup {
			b.last = owner
		}
	}
	b.dependency = nil

	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return b
}

// Go marks every job the builder created as ready, releasing them to
// run as their dependencies allow. Call this once the whole chain has
// been described.
func (b *Builder) Go() {
	for _, state := range b.all {
		state.SetReady()
	}
}

// Fail cancels every job the builder has created so far. Called
// automatically when the node pool is exhausted; exported so a caller
// can abort a chain under construction for its own reasons.
func (b *Builder) Fail() {
	b.fail(ErrExhausted)
}

func (b *Builder) fail(cause error) {
	for _, state := range b.all {
		state.Cancel()
	}
	b.failed = true
	if b.cause == nil {
		b.cause = cause
	}
}

// Failed reports whether this builder ever hit node-pool exhaustion or
// another construction failure. Every job of a failed chain is
// cancelled; a queue scan removes each one and marks it done, releasing
// its dependants, whether or not Go was called.
func (b *Builder) Failed() bool {
	return b.failed
}

// Err returns the reason construction failed, or nil if it hasn't.
func (b *Builder) Err() error {
	return b.cause
}
