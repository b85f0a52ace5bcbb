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

// Package object provides a per-type pool of reusable instances (packet
// values, connection wrappers) satisfying the Resettable capability. This is
// the explicit stand-in for the source's inheritance-based ResetForPool: a
// pooled type implements Resettable itself rather than relying on a base
// class to wipe its state.
package object

import "sync/atomic"

// Resettable is satisfied by any type that can clear its own state before
// being handed back out by a Pool. ResetForPool must be idempotent: calling
// it twice in a row (a double-return) must not panic or corrupt state.
type Resettable interface {
	ResetForPool()
}

// Pool is a lock-free MPMC pool of *T, bounded by capacity. Get either
// returns a recycled, freshly-reset instance or allocates a new one via
// the pool's factory; exhaustion is never an error, only a counted miss.
type Pool[T any, PT interface {
	*T
	Resettable
}] struct {
	free    chan *T
	newFunc func() *T

	gets   atomic.Int64
	puts   atomic.Int64
	misses atomic.Int64
}

// New builds a Pool with the given capacity and factory. capacity bounds how
// many returned instances are retained; excess Put calls are dropped.
func New[T any, PT interface {
	*T
	Resettable
}](capacity int, newFunc func() *T) *Pool[T, PT] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Pool[T, PT]{
		free:    make(chan *T, capacity),
		newFunc: newFunc,
	}
}

// Get returns an instance: a recycled one (already reset by Put) when the
// free list has one, otherwise a new one from the factory.
func (p *Pool[T, PT]) Get() *T {
	p.gets.Add(1)
	select {
	case v := <-p.free:
		return v
	default:
		p.misses.Add(1)
		return p.newFunc()
	}
}

// Put resets v and returns it to the free list. Put on a nil pointer is a
// no-op; Put beyond capacity silently drops the instance.
func (p *Pool[T, PT]) Put(v *T) {
	if v == nil {
		return
	}
	p.puts.Add(1)
	PT(v).ResetForPool()

	select {
	case p.free <- v:
	default:
	}
}

// Stats reports Get/Put/miss counters for metrics and tests.
type Stats struct {
	Gets   int64
	Puts   int64
	Misses int64
}

func (p *Pool[T, PT]) Stats() Stats {
	return Stats{
		Gets:   p.gets.Load(),
		Puts:   p.puts.Load(),
		Misses: p.misses.Load(),
	}
}
