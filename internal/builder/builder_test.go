package builder

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacksail-games/falconjobs/internal/jobmanager"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

func testManager(t *testing.T, workers int) *jobmanager.Manager {
	t.Helper()
	desc := types.ManagerDescriptor{}
	for i := 0; i < workers; i++ {
		desc.Workers = append(desc.Workers, types.DefaultWorkerDescriptor("w"))
	}
	mgr, err := jobmanager.Create(desc, nil)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Shutdown(false) })
	return mgr
}

func TestLinearChainRunsInOrder(t *testing.T) {
	mgr := testManager(t, 4)
	b := New(mgr, 16)

	var order []int
	var mu sync.Mutex
	record := func(n int) func() {
		return func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	b.Do(record(1), 'a').Then().Do(record(2), 'b').Then().Do(record(3), 'c')
	require.False(t, b.Failed())

	b.Go()
	mgr.AssistUntilDone()

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestTogetherGroupAllRunsBeforeClose(t *testing.T) {
	mgr := testManager(t, 4)
	b := New(mgr, 16)

	var ran atomic.Int64
	var ranBeforeFinal atomic.Int64
	var finalRan atomic.Bool

	b.Do(func() {}, 'a').
		Then().
		Together('t')

	for i := 0; i < 5; i++ {
		b.Do(func() { ran.Add(1) }, 'p')
	}

	b.Close().Then().Do(func() {
		ranBeforeFinal.Store(ran.Load())
		finalRan.Store(true)
	}, 'Z')

	require.False(t, b.Failed())
	b.Go()
	mgr.AssistUntilDone()

	assert.Equal(t, int64(5), ran.Load())
	assert.True(t, finalRan.Load())
	assert.Equal(t, int64(5), ranBeforeFinal.Load(), "every group member must finish before the job after Close runs")
}

func TestGroupMembersDependOnPredecessor(t *testing.T) {
	mgr := testManager(t, 4)
	b := New(mgr, 16)

	var firstDone atomic.Bool
	var sawFirstDone atomic.Bool

	b.Do(func() { firstDone.Store(true) }, 'a').
		Then().
		Together('t').
		Do(func() {
			if firstDone.Load() {
				sawFirstDone.Store(true)
			}
		}, 'p').
		Close()

	b.Go()
	mgr.AssistUntilDone()

	assert.True(t, sawFirstDone.Load(), "a group member must not run before the job preceding the group")
}

func TestNodePoolExhaustionFailsBuilder(t *testing.T) {
	mgr := testManager(t, 2)
	b := New(mgr, 2)

	b.Do(func() {}, 'a')
	b.Do(func() {}, 'b')
	require.False(t, b.Failed())

	b.Do(func() {}, 'c')
	assert.True(t, b.Failed())
	assert.ErrorIs(t, b.Err(), ErrExhausted)
}

func TestFailCancelsAllCreatedJobs(t *testing.T) {
	mgr := testManager(t, 2)
	b := New(mgr, 16)

	var ran atomic.Bool
	b.Do(func() { ran.Store(true) }, 'a')
	b.Fail()

	b.Go()
	mgr.AssistUntilDone()

	assert.False(t, ran.Load(), "a failed builder's jobs must be cancelled, never run")
}
