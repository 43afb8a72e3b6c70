package store

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// PrefetchConfig bounds the concurrency and throughput of Prefetch.
type PrefetchConfig struct {
	// MaxConcurrency is the maximum number of blobs fetched at once. If
	// zero, defaults to 4.
	MaxConcurrency int64
	// MaxBytesPerSec throttles aggregate read throughput. If zero,
	// unlimited.
	MaxBytesPerSec int64
}

// Prefetch fetches each of names from s, bounded by cfg, and returns
// their contents in the same order names were given.
//
// The pipeline itself stays single-threaded: liveness and merge only
// ever see prefetch's already-ordered result slice, never the
// concurrent fetches themselves. This lets a link step pull many remote
// .modsum inputs without serializing on network latency, while keeping
// the merge step's first-definition-wins semantics exactly as
// deterministic as if every input had been read one at a time in
// argument order.
func Prefetch(ctx context.Context, s BlobStore, names []string, cfg PrefetchConfig) ([][]byte, error) {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	sem := semaphore.NewWeighted(maxConcurrency)
	var limiter *rate.Limiter
	if cfg.MaxBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxBytesPerSec), int(cfg.MaxBytesPerSec))
	}

	results := make([][]byte, len(names))
	errs := make([]error, len(names))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan int, len(names))
	for i, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			done <- i
			continue
		}
		go func(i int, name string) {
			defer sem.Release(1)
			data, err := s.Get(ctx, name)
			for remaining := len(data); err == nil && limiter != nil && remaining > 0; {
				n := min(remaining, limiter.Burst())
				err = limiter.WaitN(ctx, n)
				remaining -= n
			}
			results[i], errs[i] = data, err
			done <- i
		}(i, name)
	}

	for range names {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
