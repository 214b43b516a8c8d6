package quill

import "sync"

// task splits the pair list into one contiguous chunk per worker, runs fn on
// every element, and blocks until all workers drain their chunk.
func task[T any](workers int, items []T, fn func(item T)) {
	var wg sync.WaitGroup
	chunk := (len(items) + workers - 1) / workers

	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(items[i])
			}
		}(worker*chunk, min((worker+1)*chunk, len(items)))
	}
	wg.Wait()
}
