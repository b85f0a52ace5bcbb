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

// Package connlimit implements the per-remote-address concurrent connection
// cap described in spec.md §4.8: a concurrent map of remote address to
// current count, gating accepted sockets before a Connection is ever
// constructed for them.
package connlimit

import (
	libatm "github/nabbar/nalix/atomic"
)

// Limiter caps the number of simultaneously open connections per remote
// address. The zero value via New(0) disables the cap.
type Limiter struct {
	max   int
	state libatm.MapTyped[string, int]
}

// New returns a Limiter allowing at most maxPerAddress concurrent
// connections from a given remote address. maxPerAddress <= 0 disables the
// cap (TryAcquire always succeeds).
func New(maxPerAddress int) *Limiter {
	return &Limiter{
		max:   maxPerAddress,
		state: libatm.NewMapTyped[string, int](),
	}
}

// TryAcquire increments the count for remote and reports whether the new
// count is within the configured cap. A false result means the caller must
// close the socket immediately with reason TooManyConnections (spec.md
// §4.8) without ever constructing a Connection for it.
func (l *Limiter) TryAcquire(remote string) bool {
	if l.max <= 0 {
		return true
	}

	for {
		cur, loaded := l.state.LoadOrStore(remote, 0)
		if !loaded {
			cur = 0
		}
		if cur >= l.max {
			return false
		}
		if l.state.CompareAndSwap(remote, cur, cur+1) {
			return true
		}
	}
}

// Release decrements the count for remote. It is safe to call even if
// remote was never acquired; the count never goes negative.
func (l *Limiter) Release(remote string) {
	for {
		cur, ok := l.state.Load(remote)
		if !ok || cur <= 0 {
			return
		}
		if cur == 1 {
			if l.state.CompareAndDelete(remote, 1) {
				return
			}
			continue
		}
		if l.state.CompareAndSwap(remote, cur, cur-1) {
			return
		}
	}
}

// Count returns the current number of acquired slots for remote.
func (l *Limiter) Count(remote string) int {
	cur, _ := l.state.Load(remote)
	return cur
}
