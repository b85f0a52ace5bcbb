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

package dispatch

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// reentrancyGuard enforces spec.md §4.6's "non-reentrancy is per
// (connection, opcode)": a bitset.BitSet per connection, one bit per
// opcode, set while that opcode is in flight on that connection. This is
// new wiring of bits-and-blooms/bitset beyond the flags byte it already
// backs in the packet package.
type reentrancyGuard struct {
	mu    sync.Mutex
	byCon map[uint64]*bitset.BitSet
}

func newReentrancyGuard() *reentrancyGuard {
	return &reentrancyGuard{byCon: make(map[uint64]*bitset.BitSet)}
}

// tryEnter marks (connID, opcode) in flight, reporting false if it was
// already set (the caller must reject with Busy rather than invoke the
// handler a second time concurrently).
func (g *reentrancyGuard) tryEnter(connID uint64, opcode uint16) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	bs, ok := g.byCon[connID]
	if !ok {
		bs = bitset.New(1 << 16)
		g.byCon[connID] = bs
	}
	if bs.Test(uint(opcode)) {
		return false
	}
	bs.Set(uint(opcode))
	return true
}

// leave clears (connID, opcode), allowing the next invocation to proceed.
func (g *reentrancyGuard) leave(connID uint64, opcode uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bs, ok := g.byCon[connID]; ok {
		bs.Clear(uint(opcode))
	}
}

// forgetConnection drops a connection's bitset entirely, called when the
// connection closes so the guard map does not grow unbounded.
func (g *reentrancyGuard) forgetConnection(connID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.byCon, connID)
}
