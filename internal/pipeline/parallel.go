package pipeline

import (
	"runtime"
	"sync"

	"github.com/rillshell/rill/internal/value"
)

// ParEach evaluates f over every element on a pool of workers and returns
// the results in original-index order regardless of which worker finished
// first. The input is materialized up front so indices are deterministic;
// each worker writes only its own slots. f must not share mutable state
// between invocations — callers hand each one its own cloned stack.
func (p PipelineData) ParEach(workers int, interrupt *Interrupt, f func(idx int, v value.Value) value.Value) PipelineData {
	items := p.IntoIter().Collect()
	if len(items) == 0 {
		return FromStream(emptyStream(), p.Meta)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]value.Value, len(items))
	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = f(i, items[i])
			}
		}()
	}
	for i := range items {
		if interrupt.Triggered() {
			break
		}
		indices <- i
	}
	close(indices)
	wg.Wait()

	// Cancellation mid-dispatch leaves a prefix; trim unassigned slots.
	out := results[:0:0]
	for _, r := range results {
		if r == nil {
			break
		}
		out = append(out, r)
	}
	return FromStream(FromSlice(out), p.Meta)
}
