package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacksail-games/falconjobs/internal/jobstate"
)

func TestPopRunnableSkipsNotReady(t *testing.T) {
	q := New()
	state := jobstate.New(nil)
	q.PushFront(Entry{Job: func() {}, State: state})

	_, found, unsatisfied := q.PopRunnable()
	assert.False(t, found)
	assert.True(t, unsatisfied)

	state.SetReady()
	entry, found, _ := q.PopRunnable()
	require.True(t, found)
	assert.Same(t, state, entry.State)
}

func TestPopRunnableRemovesCancelledEntries(t *testing.T) {
	q := New()
	state := jobstate.New(nil)
	state.Cancel()
	q.PushFront(Entry{Job: func() {}, State: state})

	_, found, _ := q.PopRunnable()
	assert.False(t, found, "a cancelled entry must never be returned as runnable")
	assert.True(t, state.IsDone(), "popping a cancelled entry must mark its own state done so dependants are released")
	assert.Equal(t, 0, q.Len())
}

func TestPopRunnableFrontOrderFavorsLastPushed(t *testing.T) {
	q := New()

	first := jobstate.New(nil)
	first.SetReady()
	q.PushFront(Entry{Job: func() {}, State: first})

	second := jobstate.New(nil)
	second.SetReady()
	q.PushFront(Entry{Job: func() {}, State: second})

	entry, found, _ := q.PopRunnable()
	require.True(t, found)
	assert.Same(t, second, entry.State, "PushFront followed by a front-to-back scan gives LIFO order")
}

func TestLenReflectsPushesAndPops(t *testing.T) {
	q := New()
	assert.Equal(t, 0, q.Len())

	s := jobstate.New(nil)
	s.SetReady()
	q.PushFront(Entry{Job: func() {}, State: s})
	assert.Equal(t, 1, q.Len())

	q.PopRunnable()
	assert.Equal(t, 0, q.Len())
}
