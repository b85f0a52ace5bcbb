/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package task

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github/nabbar/nalix/runner"
)

// RecurringOptions configures a recurring job registered with Schedule.
type RecurringOptions struct {
	// Jitter adds a uniformly random delay in [0, Jitter] to each deadline.
	Jitter time.Duration

	// Timeout bounds a single run of Work, if > 0.
	Timeout time.Duration

	// MaxBackoff caps the exponential backoff applied to the next deadline
	// after a failing run. The backoff resets to Interval on success.
	MaxBackoff time.Duration

	// Reentrant allows a tick to start while the previous run of the same
	// job is still executing. Default (false) skips the tick instead.
	Reentrant bool

	OnCompleted func(name string)
	OnFailed    func(name string, err error)
}

// RecurringHandle is the queryable, disposable state of a scheduled
// recurring job (spec.md §3, "Worker Handle / Recurring Handle").
type RecurringHandle struct {
	Name     string
	Interval time.Duration
	Options  RecurringOptions

	totalRuns           int64
	consecutiveFailures int64
	running             int32

	lastRunUtc atomic.Value
	nextRunUtc atomic.Value

	backoff time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func (h *RecurringHandle) TotalRuns() int64 { return atomic.LoadInt64(&h.totalRuns) }

func (h *RecurringHandle) ConsecutiveFailures() int64 { return atomic.LoadInt64(&h.consecutiveFailures) }

func (h *RecurringHandle) IsRunning() bool { return atomic.LoadInt32(&h.running) == 1 }

func (h *RecurringHandle) LastRunUtc() time.Time {
	if v, ok := h.lastRunUtc.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

func (h *RecurringHandle) NextRunUtc() time.Time {
	if v, ok := h.nextRunUtc.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Cancel stops future ticks of this job. It does not interrupt a run
// already in flight.
func (h *RecurringHandle) Cancel() {
	h.cancel()
}

// Schedule registers a recurring job named name, running work every
// interval (deadline-based: the next deadline is lastDeadline+interval,
// never now+interval, so ticks do not drift under load -- spec.md §4.7).
func (m *Manager) Schedule(name string, interval time.Duration, work func() error, opt RecurringOptions) (*RecurringHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrorManagerClosed.Error(nil)
	}
	if _, exists := m.recurring[name]; exists {
		return nil, ErrorAlreadyScheduled.Error(nil)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	h := &RecurringHandle{
		Name:     name,
		Interval: interval,
		Options:  opt,
		backoff:  interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.nextRunUtc.Store(time.Now().Add(h.nextDelay()))

	m.recurring[name] = h
	m.wg.Add(1)
	go m.runRecurring(ctx, h, work)

	return h, nil
}

func (m *Manager) runRecurring(ctx context.Context, h *RecurringHandle, work func() error) {
	defer m.wg.Done()
	defer close(h.done)
	defer func() { runner.RecoveryCaller("task.recurring:"+h.Name, recover()) }()

	deadline := time.Now().Add(h.nextDelay())
	h.nextRunUtc.Store(deadline)

	for {
		var wait time.Duration
		now := time.Now()
		if deadline.After(now) {
			wait = deadline.Sub(now)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if h.IsRunning() && !h.Options.Reentrant {
			deadline = deadline.Add(h.backoff + h.jitter())
			h.nextRunUtc.Store(deadline)
			continue
		}

		atomic.StoreInt32(&h.running, 1)
		err := m.runOnce(ctx, h, work)
		atomic.StoreInt32(&h.running, 0)

		atomic.AddInt64(&h.totalRuns, 1)
		h.lastRunUtc.Store(time.Now())

		if err != nil {
			atomic.AddInt64(&h.consecutiveFailures, 1)
			h.backoff *= 2
			if h.Options.MaxBackoff > 0 && h.backoff > h.Options.MaxBackoff {
				h.backoff = h.Options.MaxBackoff
			}
			if m.metrics != nil {
				m.metrics.RecurringFail.WithLabelValues(h.Name).Inc()
			}
			if h.Options.OnFailed != nil {
				h.Options.OnFailed(h.Name, err)
			}
		} else {
			atomic.StoreInt64(&h.consecutiveFailures, 0)
			h.backoff = h.Interval
			if h.Options.OnCompleted != nil {
				h.Options.OnCompleted(h.Name)
			}
		}

		deadline = deadline.Add(h.backoff + h.jitter())
		h.nextRunUtc.Store(deadline)
	}
}

func (h *RecurringHandle) nextDelay() time.Duration {
	return h.Interval + h.jitter()
}

func (h *RecurringHandle) jitter() time.Duration {
	if h.Options.Jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(h.Options.Jitter) + 1))
}

func (m *Manager) runOnce(ctx context.Context, h *RecurringHandle, work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			runner.RecoveryCaller("task.recurring:"+h.Name, r)
			err = ErrorNotFound.Error(nil)
		}
	}()

	if h.Options.Timeout <= 0 {
		return work()
	}

	runCtx, cancel := context.WithTimeout(ctx, h.Options.Timeout)
	defer cancel()

	res := make(chan error, 1)
	go func() { res <- work() }()

	select {
	case err = <-res:
		return err
	case <-runCtx.Done():
		return runCtx.Err()
	}
}

// GetRecurring returns every currently registered recurring job handle.
func (m *Manager) GetRecurring() []*RecurringHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*RecurringHandle, 0, len(m.recurring))
	for _, h := range m.recurring {
		out = append(out, h)
	}
	return out
}

// TryGetRecurring looks up a recurring job by name.
func (m *Manager) TryGetRecurring(name string) (*RecurringHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.recurring[name]
	return h, ok
}

// CancelRecurring cancels and forgets the named recurring job.
func (m *Manager) CancelRecurring(name string) error {
	m.mu.Lock()
	h, ok := m.recurring[name]
	if ok {
		delete(m.recurring, name)
	}
	m.mu.Unlock()

	if !ok {
		return ErrorNotFound.Error(nil)
	}
	h.Cancel()
	return nil
}
