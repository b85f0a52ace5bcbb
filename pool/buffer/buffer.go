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

// Package buffer provides a size-classed pool of byte slices with rent/return
// semantics. Leases not large enough for a request fall through to the next
// size class; requests larger than the biggest class allocate fresh and are
// counted as a miss rather than rejected.
package buffer

import (
	"sort"
	"strconv"
	"sync/atomic"

	liberr "github/nabbar/nalix/errors"
	nlxmetrics "github/nabbar/nalix/metrics"
)

const (
	ErrorInvalidSizeClasses liberr.CodeError = iota + liberr.MinPkgPoolBuffer
	ErrorDoubleReturn
	ErrorForeignLease
)

func init() {
	liberr.RegisterIdFctMessage(ErrorInvalidSizeClasses, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorInvalidSizeClasses:
		return "buffer pool requires at least one positive size class"
	case ErrorDoubleReturn:
		return "buffer lease returned more than once"
	case ErrorForeignLease:
		return "buffer lease was not obtained from this pool"
	}
	return ""
}

// Lease owns a backing byte slice rented from a Pool size class. View exposes
// the portion the caller asked for (len(View) == the requested length); cap
// spans the whole size-class slice for reuse across classes on Return.
type Lease struct {
	backing []byte
	View    []byte

	pool     *Pool
	class    int
	returned int32
}

// Return releases the lease back to the pool that issued it (the lease
// records its own pool, so it cannot be handed to another one). Calling
// Return on an already-returned lease, or on a lease with no owning pool, is
// a no-op. Return always reports nil; ErrorDoubleReturn and
// ErrorForeignLease are not returned by it.
func (l *Lease) Return() error {
	if l == nil || l.pool == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&l.returned, 0, 1) {
		return nil
	}
	l.pool.put(l)
	return nil
}

// Len returns the length of the caller-visible view.
func (l *Lease) Len() int {
	if l == nil {
		return 0
	}
	return len(l.View)
}

// Stats reports pool-wide rent/miss counters for metrics and tests.
type Stats struct {
	Rents     int64
	Returns   int64
	Misses    int64
	Allocated int64
}

// Pool is a size-classed pool of byte slices. Each class keeps its own free
// list (a channel acting as a bounded MPMC queue); Rent picks the smallest
// class able to satisfy the request.
type Pool struct {
	classes []int
	free    []chan *Lease

	initialPerClass int
	maxPerClass     int

	stats   Stats
	metrics *nlxmetrics.Collectors
}

// WithMetrics attaches collectors so the pool drives PoolRents, PoolMisses
// and PoolReturns, each labeled by size class (spec.md §3's domain-stack
// prometheus wiring). Nil collectors (the default) disable these updates.
func (p *Pool) WithMetrics(collectors *nlxmetrics.Collectors) *Pool {
	p.metrics = collectors
	return p
}

func (p *Pool) classLabel(idx int) string {
	if idx < 0 || idx >= len(p.classes) {
		return "oversize"
	}
	return strconv.Itoa(p.classes[idx])
}

// New builds a Pool with the given ascending size classes (bytes). classes
// need not be pre-sorted. initialPerClass pre-warms each class's free list;
// maxPerClass caps how many returned leases a class retains (0 or less
// means 4096).
func New(classes []int, initialPerClass, maxPerClass int) (*Pool, error) {
	if len(classes) == 0 {
		return nil, ErrorInvalidSizeClasses.Error(nil)
	}

	cls := append([]int(nil), classes...)
	sort.Ints(cls)
	if cls[0] <= 0 {
		return nil, ErrorInvalidSizeClasses.Error(nil)
	}

	if maxPerClass <= 0 {
		maxPerClass = 4096
	}

	p := &Pool{
		classes:         cls,
		free:            make([]chan *Lease, len(cls)),
		initialPerClass: initialPerClass,
		maxPerClass:     maxPerClass,
	}

	for i, size := range cls {
		p.free[i] = make(chan *Lease, maxPerClass)
		for n := 0; n < initialPerClass; n++ {
			lease := &Lease{backing: make([]byte, size), pool: p, class: i}
			atomic.AddInt64(&p.stats.Allocated, 1)
			p.free[i] <- lease
		}
	}

	return p, nil
}

// Rent returns a Lease whose View has length n, backed by the smallest size
// class >= n. If n exceeds the largest class, a dedicated slice is allocated
// and the miss counter is incremented; such a lease is still safe to Return
// (it is simply discarded rather than recycled).
func (p *Pool) Rent(n int) *Lease {
	atomic.AddInt64(&p.stats.Rents, 1)

	idx := p.classIndex(n)
	if p.metrics != nil {
		p.metrics.PoolRents.WithLabelValues(p.classLabel(idx)).Inc()
	}

	if idx < 0 {
		atomic.AddInt64(&p.stats.Misses, 1)
		atomic.AddInt64(&p.stats.Allocated, 1)
		if p.metrics != nil {
			p.metrics.PoolMisses.WithLabelValues(p.classLabel(idx)).Inc()
		}
		l := &Lease{backing: make([]byte, n), pool: p, class: -1}
		l.View = l.backing
		return l
	}

	select {
	case l := <-p.free[idx]:
		l.View = l.backing[:n]
		l.returned = 0
		return l
	default:
		atomic.AddInt64(&p.stats.Misses, 1)
		atomic.AddInt64(&p.stats.Allocated, 1)
		if p.metrics != nil {
			p.metrics.PoolMisses.WithLabelValues(p.classLabel(idx)).Inc()
		}
		l := &Lease{backing: make([]byte, p.classes[idx]), pool: p, class: idx}
		l.View = l.backing[:n]
		return l
	}
}

func (p *Pool) classIndex(n int) int {
	for i, size := range p.classes {
		if size >= n {
			return i
		}
	}
	return -1
}

func (p *Pool) put(l *Lease) {
	atomic.AddInt64(&p.stats.Returns, 1)
	if p.metrics != nil {
		p.metrics.PoolReturns.WithLabelValues(p.classLabel(l.class)).Inc()
	}
	l.View = nil

	if l.class < 0 || l.class >= len(p.free) {
		return
	}

	select {
	case p.free[l.class] <- l:
	default:
		// class free list full; drop the lease, let GC reclaim it.
	}
}

// Stats returns a snapshot of the pool's rent/return/miss counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Rents:     atomic.LoadInt64(&p.stats.Rents),
		Returns:   atomic.LoadInt64(&p.stats.Returns),
		Misses:    atomic.LoadInt64(&p.stats.Misses),
		Allocated: atomic.LoadInt64(&p.stats.Allocated),
	}
}
