package broadphase

import "sync"

// task runs fn on every element of data, split in contiguous chunks over workersCount goroutines
func task[T any](workersCount int, data []T, fn func(data T)) {
	taskRange(workersCount, len(data), func(_, start, end int) {
		for i := start; i < end; i++ {
			fn(data[i])
		}
	})
}

// taskRange splits [0, size) in workersCount contiguous chunks and runs fn on each
// in its own goroutine. Empty chunks are skipped.
func taskRange(workersCount, size int, fn func(workerID, start, end int)) {
	workersCount = max(DEFAULT_WORKERS, workersCount)

	var wg sync.WaitGroup
	chunkSize := (size + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min((workerID+1)*chunkSize, size)
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			fn(workerID, start, end)
		}(workerID, start, end)
	}
	wg.Wait()
}
