/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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
 *
 */

// Package aggregator provides a buffered io.WriteCloser that wraps a raw
// write function, periodically invoking caller-supplied sync/async callbacks
// (used by the logging hooks to flush and detect file rotation) until closed.
package aggregator

import (
	"bufio"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosedResources is returned by Write once the Aggregator has been closed.
var ErrClosedResources = errors.New("aggregator: resources closed")

// Config configures an Aggregator instance.
type Config struct {
	// AsyncTimer, when > 0 with AsyncFct set, runs AsyncFct on that period
	// in its own goroutine for the life of the Aggregator.
	AsyncTimer time.Duration
	AsyncMax   int
	AsyncFct   func(ctx context.Context)

	// SyncTimer, when > 0 with SyncFct set, runs SyncFct on that period;
	// used by callers to flush the underlying resource and detect rotation.
	SyncTimer time.Duration
	SyncFct   func(ctx context.Context)

	// BufWriter is the buffer size in bytes; defaults to 4096 when <= 0.
	BufWriter int

	// FctWriter performs the actual write of buffered bytes.
	FctWriter func(p []byte) (int, error)
}

// Aggregator is a buffered, closeable writer whose maintenance goroutines
// start on Start and report internal failures through SetLoggerError.
type Aggregator interface {
	Write(p []byte) (int, error)
	Close() error

	// SetLoggerError installs a callback used to report errors encountered
	// by the background sync/async goroutines, instead of discarding them.
	SetLoggerError(fct func(msg string, err ...error))

	// Start launches the sync/async maintenance goroutines. Calling Start
	// more than once is a no-op.
	Start(ctx context.Context) error
}

type funcWriter func(p []byte) (int, error)

func (f funcWriter) Write(p []byte) (int, error) {
	return f(p)
}

type agg struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config

	mu      sync.Mutex
	buf     *bufio.Writer
	closed  atomic.Bool
	started atomic.Bool
	logErr  atomic.Value // func(string, ...error)
}

// New returns an Aggregator bound to ctx. Call Start to launch its
// sync/async maintenance goroutines; they stop on Close or ctx cancellation.
func New(ctx context.Context, cfg Config) (Aggregator, error) {
	if cfg.FctWriter == nil {
		return nil, errors.New("aggregator: nil writer function")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	size := cfg.BufWriter
	if size <= 0 {
		size = 4096
	}

	c, cancel := context.WithCancel(ctx)

	a := &agg{
		ctx:    c,
		cancel: cancel,
		cfg:    cfg,
		buf:    bufio.NewWriterSize(funcWriter(cfg.FctWriter), size),
	}

	return a, nil
}

func (a *agg) SetLoggerError(fct func(msg string, err ...error)) {
	if fct != nil {
		a.logErr.Store(fct)
	}
}

func (a *agg) reportError(msg string, err error) {
	if err == nil {
		return
	}
	if fct, ok := a.logErr.Load().(func(string, ...error)); ok && fct != nil {
		fct(msg, err)
	}
}

func (a *agg) Start(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return nil
	}

	if a.cfg.SyncTimer > 0 && a.cfg.SyncFct != nil {
		go a.runPeriodic(a.cfg.SyncTimer, a.cfg.SyncFct)
	}

	if a.cfg.AsyncTimer > 0 && a.cfg.AsyncFct != nil {
		go a.runPeriodic(a.cfg.AsyncTimer, a.cfg.AsyncFct)
	}

	return nil
}

func (a *agg) runPeriodic(d time.Duration, fct func(ctx context.Context)) {
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			fct(a.ctx)
		}
	}
}

func (a *agg) Write(p []byte) (int, error) {
	if a.closed.Load() {
		return 0, ErrClosedResources
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.buf.Write(p)
	if err == nil {
		err = a.buf.Flush()
	}

	return n, err
}

func (a *agg) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosedResources
	}

	a.cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.buf.Flush()
}
