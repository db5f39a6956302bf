package signal

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyAllWakesWaiter(t *testing.T) {
	p := New()
	woken := make(chan struct{})

	go func() {
		p.Lock()
		defer p.Unlock()
		p.Wait()
		close(woken)
	}()

	time.Sleep(20 * time.Millisecond) // give the goroutine time to reach Wait
	p.NotifyAll()

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("NotifyAll did not wake the waiter")
	}
}

func TestNotifyOneWakesOnlyOneWaiter(t *testing.T) {
	p := New()
	var woken atomic.Int32

	waiter := func(done chan<- struct{}) {
		p.Lock()
		p.Wait()
		p.Unlock()
		woken.Add(1)
		close(done)
	}

	doneA := make(chan struct{})
	doneB := make(chan struct{})
	go waiter(doneA)
	go waiter(doneB)

	time.Sleep(20 * time.Millisecond) // give both goroutines time to reach Wait
	p.NotifyOne()
	time.Sleep(20 * time.Millisecond) // give the woken goroutine time to increment

	assert.Equal(t, int32(1), woken.Load(), "NotifyOne must wake exactly one waiter")

	// Release the remaining waiter so neither goroutine leaks past the test.
	p.NotifyAll()
	<-doneA
	<-doneB

	require.Equal(t, int32(2), woken.Load(), "cleanup NotifyAll should have woken the remaining waiter")
}
