// Package parallel fans row-range work out across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items into one contiguous range per worker and runs fn
// on every range concurrently. It returns once all ranges have finished.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeChunks(items, func(_, start, end int) { fn(start, end) })
}

// ParallelizeChunks is Parallelize with the chunk index passed to fn, so
// callers can write per-chunk partial results without locking.
func ParallelizeChunks(items int, fn func(chunk, start, end int)) {
	if items <= 0 {
		return
	}

	chunkSize := ChunkSize(items)

	var wg sync.WaitGroup
	for chunk, start := 0, 0; start < items; chunk, start = chunk+1, start+chunkSize {
		end := min(start+chunkSize, items)

		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			fn(c, s, e)
		}(chunk, start, end)
	}
	wg.Wait()
}

// ChunkSize returns the range length used for items rows
// (ceiling division over the available cores).
func ChunkSize(items int) int {
	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	if workers < 1 {
		return items
	}
	return (items + workers - 1) / workers
}

// NumChunks returns how many ranges ParallelizeChunks produces for items.
func NumChunks(items int) int {
	if items <= 0 {
		return 0
	}
	size := ChunkSize(items)
	return (items + size - 1) / size
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// MapReduce runs mapFn over row ranges (in parallel above threshold) and
// folds the per-range results in range order with reduce.
func MapReduce[T any](items, threshold int, mapFn func(start, end int) T, reduce func(acc, part T) T) T {
	if items <= threshold || items <= 0 {
		return mapFn(0, items)
	}

	parts := make([]T, NumChunks(items))
	ParallelizeChunks(items, func(chunk, start, end int) {
		parts[chunk] = mapFn(start, end)
	})

	acc := parts[0]
	for _, p := range parts[1:] {
		acc = reduce(acc, p)
	}
	return acc
}
