package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopStressRunsNeverOverlap(t *testing.T) {
	var inFlight, maxInFlight int64
	loop, err := New(Options{
		Interval: time.Hour,
		Job: func(context.Context) error {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				cur := atomic.LoadInt64(&maxInFlight)
				if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	const workers = 8
	const perWorker = 200
	var accepted uint64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if loop.RunNow() {
					atomic.AddUint64(&accepted, 1)
				}
				if i%20 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
	waitFor(t, 5*time.Second, func() bool { return loop.Runs() >= atomic.LoadUint64(&accepted) })
	loop.Stop()

	if got := atomic.LoadInt64(&maxInFlight); got != 1 {
		t.Fatalf("runs overlapped: max in flight=%d", got)
	}
	total := uint64(workers * perWorker)
	if accepted+loop.Dropped() != total {
		t.Fatalf("accepted=%d dropped=%d total=%d", accepted, loop.Dropped(), total)
	}
}
