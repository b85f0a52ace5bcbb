/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package semaphore wraps golang.org/x/sync/semaphore with a worker/main
// bookkeeping convenience so callers can bound fan-out concurrency without
// hand-rolling a WaitGroup and an error channel at every call site.
package semaphore

import (
	"context"
	"sync"

	xsemaphore "golang.org/x/sync/semaphore"
)

// Semaphore bounds the number of concurrent workers started through
// NewWorker or TryAcquire. DeferWorker takes no error, so workers report no
// errors through it.
type Semaphore interface {
	// NewWorker blocks until a slot is available or ctx is done, then
	// reserves it. Call DeferWorker when the worker goroutine returns.
	NewWorker() error

	// TryAcquire reserves a slot only if one is immediately free, without
	// blocking. Call DeferWorker when the worker goroutine returns after a
	// successful TryAcquire, exactly as after NewWorker.
	TryAcquire() bool

	// DeferWorker releases the slot reserved by NewWorker. Safe to call in
	// a defer from the worker goroutine.
	DeferWorker()

	// DeferMain waits for every outstanding worker to finish. Safe to call
	// in a defer from the spawning goroutine.
	DeferMain()

	// WaitAll blocks until every worker started so far has called
	// DeferWorker. No method of the interface records an error, so it
	// returns nil.
	WaitAll() error
}

type sem struct {
	ctx context.Context
	wgt *xsemaphore.Weighted
	wg  sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewSemaphoreWithContext returns a Semaphore bound to ctx. limit is the
// maximum number of concurrent workers; a limit of 0 or less means
// unbounded (workers are still tracked, never blocked).
func NewSemaphoreWithContext(ctx context.Context, limit int64) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}

	if limit <= 0 {
		limit = 1 << 30
	}

	return &sem{
		ctx: ctx,
		wgt: xsemaphore.NewWeighted(limit),
	}
}

func (s *sem) NewWorker() error {
	if err := s.wgt.Acquire(s.ctx, 1); err != nil {
		return err
	}
	s.wg.Add(1)
	return nil
}

func (s *sem) TryAcquire() bool {
	if !s.wgt.TryAcquire(1) {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *sem) DeferWorker() {
	s.wgt.Release(1)
	s.wg.Done()
}

func (s *sem) DeferMain() {
	s.wg.Wait()
}

func (s *sem) WaitAll() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *sem) reportError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
