// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workerpool specifies the job/result contract for the
// parallel bulk-lookup layer that sits above the core: a set of
// independent generator functions, each run in its own goroutine
// against its own file handle, fanned in to a single result stream.
//
// This is a thin collaborator, not part of the core codec/index/parser
// contract. Its only requirements are: no shared mutable state between
// workers, results delivered in arrival order (not input order) with
// enough context for the caller to disambiguate, batching to amortize
// channel overhead, and clean cancellation.
package workerpool

import (
	"context"
	"sync"
)

// Batch is one worker's delivery of results, tagged with the Key it
// was started with so a caller needing ordered output can group
// arrivals back by origin.
type Batch[K any, T any] struct {
	Key   K
	Items []T
	Err   error
}

// Generator produces a sequence of T for a single worker, pushing each
// item to emit. It returns when exhausted or ctx is cancelled; a
// non-nil return value is reported to the coordinator as that worker's
// terminal error.
type Generator[T any] func(ctx context.Context, emit func(T)) error

// Run starts one goroutine per entry in jobs, each running that
// entry's Generator, and fans batched results into the
// returned channel. A worker's results are grouped into batches of up
// to batchSize items to reduce channel traffic; each worker emits its
// final, possibly short, batch before finishing. Results from distinct
// workers interleave in arrival order; Batch.Key identifies which job
// produced a given batch.
//
// The returned channel is closed once every worker has finished (or
// ctx has been cancelled and all workers have unwound). Run itself
// does not block.
func Run[K comparable, T any](ctx context.Context, jobs map[K]Generator[T], batchSize int) <-chan Batch[K, T] {
	if batchSize < 1 {
		batchSize = 1
	}
	out := make(chan Batch[K, T], len(jobs))

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for key, gen := range jobs {
		key, gen := key, gen
		go func() {
			defer wg.Done()
			runWorker(ctx, key, gen, batchSize, out)
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func runWorker[K any, T any](ctx context.Context, key K, gen Generator[T], batchSize int, out chan<- Batch[K, T]) {
	var pending []T
	flush := func() {
		if len(pending) == 0 {
			return
		}
		select {
		case out <- Batch[K, T]{Key: key, Items: pending}:
		case <-ctx.Done():
		}
		pending = nil
	}

	err := gen(ctx, func(item T) {
		pending = append(pending, item)
		if len(pending) >= batchSize {
			flush()
		}
	})
	flush()

	if err != nil {
		select {
		case out <- Batch[K, T]{Key: key, Err: err}:
		case <-ctx.Done():
		}
	}
}

// Collect drains ch until it is closed, calling onBatch for each
// successful batch in arrival order. On the first worker error it
// calls cancel so the remaining workers unwind promptly, keeps
// draining (later successful batches still reach onBatch), and returns
// that first error once ch is closed; callers that don't need early
// cancellation can pass a no-op cancel.
func Collect[K any, T any](ch <-chan Batch[K, T], cancel context.CancelFunc, onBatch func(Batch[K, T])) error {
	var firstErr error
	for b := range ch {
		if b.Err != nil {
			if firstErr == nil {
				firstErr = b.Err
				cancel()
			}
			continue
		}
		onBatch(b)
	}
	return firstErr
}
