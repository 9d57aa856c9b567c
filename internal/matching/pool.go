package matching

import (
	"context"
	"sync"
	"sync/atomic"
)

// fanOut runs fn for every index in [0, n) on at most workers goroutines and
// returns the results in input order. Items not started before ctx is done
// are left as the zero value. done is called after each finished item.
func fanOut[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, i int) T, done func(finished int)) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}

	type indexed struct {
		index int
		value T
	}
	resultChan := make(chan indexed, n)
	var finished int64

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(1, workers))

	for i := range n {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			// Acquire semaphore
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			v := fn(ctx, index)

			if done != nil {
				done(int(atomic.AddInt64(&finished, 1)))
			}

			resultChan <- indexed{index: index, value: v}
		}(i)
	}

	// Close channel when all done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.index] = r.value
	}

	return results
}
