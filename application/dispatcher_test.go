package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsSubmittedTasks(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(16)
	d.Start(ctx)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		d.Submit("chan-100", func() { ran.Add(1) })
	}

	require.Eventually(t, func() bool {
		return ran.Load() == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_PreservesPerKeyOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1024)
	d.Start(ctx)

	const n = 500
	var mu sync.Mutex
	var seen []int
	var other atomic.Int32

	// Interleave a second key so its queue runs concurrently.
	for i := 0; i < n; i++ {
		i := i
		d.Submit("chan-100", func() {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
		})
		d.Submit("chan-200", func() { other.Add(1) })
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == n && other.Load() == n
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		require.Equal(t, i, seen[i], "per-key delivery order violated at position %d", i)
	}
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(2)
	d.Start(ctx)

	release := make(chan struct{})
	var ran atomic.Int32

	// First task occupies the drainer, the next two fill the queue, the rest
	// are dropped without blocking.
	d.Submit("chan-100", func() {
		<-release
		ran.Add(1)
	})
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 4; i++ {
		d.Submit("chan-100", func() { ran.Add(1) })
	}
	close(release)

	require.Eventually(t, func() bool {
		return ran.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), ran.Load())
}

func TestLaneRunner_SerializesPerKey(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lanes := newLaneRunner(ctx)

	var mu sync.Mutex
	order := make(map[string][]int)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		i := i
		key := "a|b"
		if i%2 == 1 {
			key = "a|c"
		}
		wg.Add(1)
		lanes.Run(key, func() {
			defer wg.Done()
			mu.Lock()
			order[key] = append(order[key], i)
			mu.Unlock()
		})
	}
	wg.Wait()

	// Within a lane, submission order is preserved.
	for key, seen := range order {
		for j := 1; j < len(seen); j++ {
			assert.Less(t, seen[j-1], seen[j], "lane %s out of order", key)
		}
	}
}
