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

// Package task owns the two kinds of background work the server depends
// on (spec.md §4.7): recurring jobs ticking on a drift-free deadline clock,
// and tracked long-running workers grouped with per-group concurrency
// caps. Both share one Manager so a single root context/WaitGroup drains
// the whole tree on shutdown, mirroring the teacher's httpserver PoolServer
// lifecycle (IsRunning/WaitNotify/Restart/Shutdown) generalized from "pool
// of HTTP servers" to "pool of jobs and workers".
package task

import (
	"context"
	"sync"

	nlxclock "github/nabbar/nalix/clock"
	nlxmetrics "github/nabbar/nalix/metrics"
	libsem "github/nabbar/nalix/semaphore"
)

// Manager owns every recurring job and worker registered against it.
type Manager struct {
	clock   nlxclock.Clock
	metrics *nlxmetrics.Collectors

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	recurring map[string]*RecurringHandle
	workers   map[string]*WorkerHandle

	groupMu sync.Mutex
	groups  map[string]libsem.Semaphore
	groupN  map[string]int64
}

// New returns a Manager bound to clk for timestamping handles. Background
// goroutines spawned by Schedule/ScheduleWorker are children of the
// manager's own context; call Shutdown to cancel all of them.
func New(clk nlxclock.Clock) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clock:     clk,
		ctx:       ctx,
		cancel:    cancel,
		recurring: make(map[string]*RecurringHandle),
		workers:   make(map[string]*WorkerHandle),
		groups:    make(map[string]libsem.Semaphore),
		groupN:    make(map[string]int64),
	}
}

// WithMetrics attaches collectors so the manager drives WorkerRunning and
// RecurringFail (spec.md §3's domain-stack prometheus wiring). Nil
// collectors (the default) disable these updates.
func (m *Manager) WithMetrics(collectors *nlxmetrics.Collectors) *Manager {
	m.metrics = collectors
	return m
}

// IsRunning reports whether the manager has not yet been shut down.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

// groupSemaphore returns (creating if needed) the semaphore gating group,
// sized to limit. A limit <= 0 means unbounded.
func (m *Manager) groupSemaphore(group string, limit int64) libsem.Semaphore {
	m.groupMu.Lock()
	defer m.groupMu.Unlock()

	if s, ok := m.groups[group]; ok && m.groupN[group] == limit {
		return s
	}

	s := libsem.NewSemaphoreWithContext(m.ctx, limit)
	m.groups[group] = s
	m.groupN[group] = limit
	return s
}

// CancelAllWorkers cancels every tracked worker but leaves recurring jobs
// running; see Shutdown to stop both.
func (m *Manager) CancelAllWorkers() {
	m.mu.RLock()
	handles := make([]*WorkerHandle, 0, len(m.workers))
	for _, w := range m.workers {
		handles = append(handles, w)
	}
	m.mu.RUnlock()

	for _, w := range handles {
		w.Cancel()
	}
}

// Shutdown cancels the manager's root context (stopping every recurring
// job and worker), waits for all of them to return, and marks the
// manager closed to further Schedule/ScheduleWorker calls.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
