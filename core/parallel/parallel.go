// Package parallel splits an index range [0, n) into contiguous chunks and
// processes them on separate goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Workers returns the number of goroutines For uses for items work items:
// GOMAXPROCS, but never more than items.
func Workers(items int) int {
	w := runtime.GOMAXPROCS(0)
	if w > items {
		w = items
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Parallelize runs fn once per chunk of [0, items), one goroutine per chunk,
// and waits for all of them. Chunks are disjoint and cover the whole range,
// so fn may write to index-owned output without locking.
//
// A panic in fn is re-raised on the calling goroutine after every chunk has
// finished.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := Workers(items)
	chunkSize := (items + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		panicked interface{}
	)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if panicked == nil {
						panicked = r
					}
					mu.Unlock()
				}
			}()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()

	if panicked != nil {
		panic(panicked)
	}
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine when
// items does not exceed threshold, and Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
