package shamir

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps small grids on a single goroutine.
const minChunk = 4096

// forEachChunk calls fn on contiguous [lo, hi) ranges covering [0, count).
// Positions are independent, so ranges run concurrently.
func forEachChunk(count int, fn func(lo, hi int) error) error {
	workers := runtime.GOMAXPROCS(0)
	chunk := (count + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < count; lo += chunk {
		lo := lo
		hi := min(lo+chunk, count)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
