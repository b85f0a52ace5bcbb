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
	"context"
	"sync"
)

// HandlerFunc is the explicit registration this package requires in place
// of the source's reflection-driven handler discovery (spec.md §9). A
// handler receives the packet, the connection it arrived on, and a
// cancellation context; it returns a tagged Reply.
type HandlerFunc func(ctx context.Context, pkt *PacketView, conn Connection) (Reply, error)

// PacketView is what a handler sees: the already-unwrapped packet plus its
// resolved Attributes, so handlers never touch raw wire bytes.
type PacketView struct {
	Magic   uint32
	Opcode  uint16
	Payload []byte
}

// handlerKey identifies one registration: a packet family (magic/type) and
// an opcode within it.
type handlerKey struct {
	packetType uint32
	opcode     uint16
}

// Registry maps (packetType, opcode) to a HandlerFunc plus the Attributes
// its middleware stages should apply. Registration happens at startup;
// lookups afterward are read-mostly (spec.md §4.6: "a static registry").
type Registry struct {
	mu      sync.RWMutex
	closed  bool
	entries map[handlerKey]registryEntry
}

type registryEntry struct {
	handler    HandlerFunc
	attributes Attributes
	reentrant  bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[handlerKey]registryEntry)}
}

// Register binds handler to (packetType, opcode) with the given
// Attributes. reentrant, when true, allows a second in-flight invocation
// for the same (connection, opcode) instead of rejecting it with Busy
// (spec.md §4.6 non-reentrancy).
func (r *Registry) Register(packetType uint32, opcode uint16, handler HandlerFunc, attrs Attributes, reentrant bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.entries[handlerKey{packetType, opcode}] = registryEntry{handler: handler, attributes: attrs, reentrant: reentrant}
}

// Freeze marks the registry read-only; later Register calls are no-ops.
// The handler registry is immutable post-activation (spec.md §5).
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Registry) lookup(packetType uint32, opcode uint16) (registryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[handlerKey{packetType, opcode}]
	return e, ok
}
