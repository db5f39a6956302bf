package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/internal/signal"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

func TestWorkerRunsItsOwnJob(t *testing.T) {
	pool := signal.New()
	var active atomic.Int64

	w := New(0, types.DefaultWorkerDescriptor("solo"), pool, nil, &active)
	w.SetPeers([]*Worker{w})
	w.Start()
	defer w.Shutdown(true)

	var ran atomic.Bool
	state := w.Push(func() { ran.Store(true) })
	state.SetReady()

	state.Wait(time.Second)
	assert.True(t, ran.Load())
	assert.True(t, state.IsDone())
}

func TestWorkerStealsFromPeerWhenEnabled(t *testing.T) {
	pool := signal.New()
	var active atomic.Int64

	busy := New(0, types.DefaultWorkerDescriptor("busy"), pool, nil, &active)
	idle := New(1, types.DefaultWorkerDescriptor("idle"), pool, nil, &active)
	busy.SetPeers([]*Worker{busy, idle})
	idle.SetPeers([]*Worker{busy, idle})

	// Only start the idle worker; the job sits in busy's queue until
	// idle steals it, proving ownership doesn't gate execution.
	idle.Start()
	defer idle.Shutdown(true)

	var ran atomic.Bool
	state := busy.Push(func() { ran.Store(true) })
	state.SetReady()

	state.Wait(time.Second)
	assert.True(t, ran.Load())
}

func TestWorkerDoesNotStealWhenDisabled(t *testing.T) {
	pool := signal.New()
	var active atomic.Int64

	desc := types.DefaultWorkerDescriptor("solitary")
	desc.WorkStealing = false

	busy := New(0, desc, pool, nil, &active)
	idle := New(1, desc, pool, nil, &active)
	busy.SetPeers([]*Worker{busy, idle})
	idle.SetPeers([]*Worker{busy, idle})

	idle.Start()
	defer idle.Shutdown(true)

	var ran atomic.Bool
	state := busy.Push(func() { ran.Store(true) })
	state.SetReady()

	state.Wait(50 * time.Millisecond)
	assert.False(t, ran.Load(), "stealing is disabled, so idle must never touch busy's queue")
}

func TestPopNextEmitsStolenOnlyForPeerHits(t *testing.T) {
	pool := signal.New()
	var active atomic.Int64

	var events []types.EventKind
	observe := func(entry jobqueue.Entry, event types.EventKind, v1, v2 uint64) {
		events = append(events, event)
	}

	a := New(0, types.DefaultWorkerDescriptor("a"), pool, observe, &active)
	b := New(1, types.DefaultWorkerDescriptor("b"), pool, observe, &active)
	a.SetPeers([]*Worker{a, b})
	b.SetPeers([]*Worker{a, b})

	state := a.Push(func() {})
	state.SetReady()

	_, found, stolen := b.PopNext(true)
	require.True(t, found)
	assert.True(t, stolen)
	assert.Contains(t, events, types.EventJobPopped)
	assert.Contains(t, events, types.EventJobStolen)
}

func TestShutdownStopsTheLoop(t *testing.T) {
	pool := signal.New()
	var active atomic.Int64

	w := New(0, types.DefaultWorkerDescriptor("solo"), pool, nil, &active)
	w.SetPeers([]*Worker{w})
	w.Start()

	done := make(chan struct{})
	go func() {
		w.Shutdown(true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
}
