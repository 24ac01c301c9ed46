package fluid

import (
	"runtime"
	"sync"
)

// serialCells is the grid size below which stages run on the calling goroutine.
const serialCells = 4096

// parallelRows executes fn for each row y in [0,h). Rows are split among
// available CPUs when the grid is large enough to amortize the goroutines.
func parallelRows(w, h int, fn func(y int)) {
	if h <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 || w*h < serialCells {
		for y := 0; y < h; y++ {
			fn(y)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (h + workers - 1) / workers
	for s := 0; s < h; s += chunk {
		e := min(s+chunk, h)
		wg.Add(1)
		go func(ss, ee int) {
			defer wg.Done()
			for y := ss; y < ee; y++ {
				fn(y)
			}
		}(s, e)
	}
	wg.Wait()
}
