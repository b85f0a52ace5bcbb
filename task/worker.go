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
	"strconv"
	"sync/atomic"
	"time"

	"github/nabbar/nalix/runner"
	nlxsnowflake "github/nabbar/nalix/snowflake"
)

// WorkerOptions configures a worker registered through ScheduleWorker.
type WorkerOptions struct {
	Tag       string
	MachineID uint16
	IDType    uint8

	OnCompleted func(id nlxsnowflake.ID)
	OnFailed    func(id nlxsnowflake.ID, err error)

	ExecutionTimeout time.Duration
	RetainFor        time.Duration

	// GroupConcurrencyLimit caps concurrently running workers sharing the
	// same group name. <= 0 means unbounded.
	GroupConcurrencyLimit int64

	// TryAcquireSlotImmediately, when true, cancels the worker instead of
	// queueing it if no group slot is free at schedule time.
	TryAcquireSlotImmediately bool

	CancellationToken context.Context
}

// WorkerHandle is the queryable, disposable state of a tracked worker
// (spec.md §3).
type WorkerHandle struct {
	ID      nlxsnowflake.ID
	Name    string
	Group   string
	Options WorkerOptions

	totalRuns int64
	progress  int64
	isRunning int32

	note atomic.Value

	startedUtc       time.Time
	lastHeartbeatUtc atomic.Value

	cancel context.CancelFunc
	done   chan struct{}
}

func (w *WorkerHandle) IsRunning() bool { return atomic.LoadInt32(&w.isRunning) == 1 }

func (w *WorkerHandle) Progress() int64 { return atomic.LoadInt64(&w.progress) }

func (w *WorkerHandle) LastNote() string {
	if v, ok := w.note.Load().(string); ok {
		return v
	}
	return ""
}

func (w *WorkerHandle) LastHeartbeatUtc() time.Time {
	if v, ok := w.lastHeartbeatUtc.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Beat records a heartbeat timestamp for liveness monitoring.
func (w *WorkerHandle) Beat() {
	w.lastHeartbeatUtc.Store(time.Now())
}

// Advance reports incremental progress plus a free-form status note.
func (w *WorkerHandle) Advance(delta int64, note string) {
	atomic.AddInt64(&w.progress, delta)
	w.note.Store(note)
	w.Beat()
}

// Cancel stops the worker's context; the work function is expected to
// observe ctx.Done() at its own suspension points.
func (w *WorkerHandle) Cancel() {
	w.cancel()
}

// ScheduleWorker starts work as a tracked, cancellable background worker
// named name in group. work receives the WorkerHandle so it can call Beat
// and Advance, and a context cancelled on Cancel/CancelGroup/Shutdown.
func (m *Manager) ScheduleWorker(name, group string, work func(ctx context.Context, h *WorkerHandle) error, opt WorkerOptions) (*WorkerHandle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrorManagerClosed.Error(nil)
	}
	m.mu.Unlock()

	parent := m.ctx
	if opt.CancellationToken != nil {
		parent = opt.CancellationToken
	}

	gen, err := nlxsnowflake.New(m.clock, opt.MachineID, opt.IDType)
	if err != nil {
		return nil, err
	}
	id, err := gen.New()
	if err != nil {
		return nil, err
	}

	sem := m.groupSemaphore(group, opt.GroupConcurrencyLimit)
	if opt.TryAcquireSlotImmediately {
		if !sem.TryAcquire() {
			return nil, ErrorGroupSlotUnavailable.Error(nil)
		}
	}

	ctx, cancel := context.WithCancel(parent)
	h := &WorkerHandle{
		ID:         id,
		Name:       name,
		Group:      group,
		Options:    opt,
		startedUtc: time.Now(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.Beat()

	m.mu.Lock()
	m.workers[workerKey(id)] = h
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runWorker(ctx, h, sem, work, opt.TryAcquireSlotImmediately)

	return h, nil
}

func (m *Manager) runWorker(ctx context.Context, h *WorkerHandle, sem interface {
	NewWorker() error
	DeferWorker()
}, work func(ctx context.Context, h *WorkerHandle) error, slotHeld bool) {
	defer m.wg.Done()
	defer close(h.done)
	defer func() { runner.RecoveryCaller("task.worker:"+h.Name, recover()) }()

	if !slotHeld {
		if err := sem.NewWorker(); err != nil {
			if h.Options.OnFailed != nil {
				h.Options.OnFailed(h.ID, err)
			}
			m.retainThenDiscard(h)
			return
		}
	}
	defer sem.DeferWorker()

	atomic.StoreInt32(&h.isRunning, 1)
	atomic.AddInt64(&h.totalRuns, 1)
	if m.metrics != nil {
		m.metrics.WorkerRunning.WithLabelValues(h.Group).Inc()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if h.Options.ExecutionTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, h.Options.ExecutionTimeout)
		defer cancel()
	}

	err := m.runWorkerOnce(runCtx, h, work)
	atomic.StoreInt32(&h.isRunning, 0)
	if m.metrics != nil {
		m.metrics.WorkerRunning.WithLabelValues(h.Group).Dec()
	}

	if err != nil {
		if h.Options.OnFailed != nil {
			h.Options.OnFailed(h.ID, err)
		}
	} else if h.Options.OnCompleted != nil {
		h.Options.OnCompleted(h.ID)
	}

	m.retainThenDiscard(h)
}

func (m *Manager) runWorkerOnce(ctx context.Context, h *WorkerHandle, work func(ctx context.Context, h *WorkerHandle) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			runner.RecoveryCaller("task.worker:"+h.Name, r)
			err = ErrorNotFound.Error(nil)
		}
	}()
	return work(ctx, h)
}

func (m *Manager) retainThenDiscard(h *WorkerHandle) {
	retain := h.Options.RetainFor
	key := workerKey(h.ID)

	if retain <= 0 {
		m.mu.Lock()
		delete(m.workers, key)
		m.mu.Unlock()
		return
	}

	go func() {
		select {
		case <-time.After(retain):
		case <-m.ctx.Done():
		}
		m.mu.Lock()
		delete(m.workers, key)
		m.mu.Unlock()
	}()
}

func workerKey(id nlxsnowflake.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// GetWorkers returns tracked workers, optionally filtered to runningOnly
// and/or a specific group (empty group means no group filter).
func (m *Manager) GetWorkers(runningOnly bool, group string) []*WorkerHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*WorkerHandle, 0, len(m.workers))
	for _, w := range m.workers {
		if group != "" && w.Group != group {
			continue
		}
		if runningOnly && !w.IsRunning() {
			continue
		}
		out = append(out, w)
	}
	return out
}

// TryGetWorker looks up a tracked worker by id.
func (m *Manager) TryGetWorker(id nlxsnowflake.ID) (*WorkerHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.workers[workerKey(id)]
	return h, ok
}

// CancelWorker cancels the tracked worker identified by id.
func (m *Manager) CancelWorker(id nlxsnowflake.ID) error {
	m.mu.RLock()
	h, ok := m.workers[workerKey(id)]
	m.mu.RUnlock()

	if !ok {
		return ErrorNotFound.Error(nil)
	}
	h.Cancel()
	return nil
}

// CancelGroup cancels every tracked worker currently in group.
func (m *Manager) CancelGroup(group string) {
	for _, w := range m.GetWorkers(false, group) {
		w.Cancel()
	}
}

