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
	nlxbuffer "github/nabbar/nalix/pool/buffer"
)

// OverflowPolicy selects what Push does when the Channel is at capacity
// (spec.md §4.5).
type OverflowPolicy uint8

const (
	// OverflowDrop drops the new item and reports ErrorQueueFull to the
	// caller, who is expected to notify the connection.
	OverflowDrop OverflowPolicy = iota
	// OverflowPauseReads signals the caller (via the bool return of Push)
	// to stop reading from the connection until the queue drains.
	OverflowPauseReads
)

// Inbound is one item on the dispatch channel: a connection paired with
// the buffer lease holding its raw frame bytes.
type Inbound struct {
	Conn  Connection
	Lease *nlxbuffer.Lease
}

// Channel is the MPSC queue of Inbound items connections push to and
// dispatch workers pull from (spec.md §4.5). FIFO is global across
// connections.
type Channel struct {
	items  chan Inbound
	policy OverflowPolicy
}

// NewChannel returns a Channel with the given capacity and overflow
// policy.
func NewChannel(capacity int, policy OverflowPolicy) *Channel {
	if capacity <= 0 {
		capacity = 1
	}
	return &Channel{items: make(chan Inbound, capacity), policy: policy}
}

// Push enqueues in. It reports ok=false when the channel is at capacity:
// under OverflowDrop the caller should report ErrorQueueFull on the
// connection and return the lease to its pool; under OverflowPauseReads
// the caller should stop reading until a subsequent Push succeeds.
func (c *Channel) Push(in Inbound) (ok bool) {
	select {
	case c.items <- in:
		return true
	default:
		return false
	}
}

// Policy reports the channel's configured overflow behavior.
func (c *Channel) Policy() OverflowPolicy {
	return c.policy
}

// Len reports the number of items currently queued, for gauges that track
// dispatch backlog.
func (c *Channel) Len() int {
	return len(c.items)
}

// Pull blocks until an item is available or done is closed, in which case
// ok is false.
func (c *Channel) Pull(done <-chan struct{}) (in Inbound, ok bool) {
	select {
	case in = <-c.items:
		return in, true
	case <-done:
		return Inbound{}, false
	}
}

// Drain empties the channel, returning every lease still queued to its
// pool -- called on shutdown (spec.md §4.5: "drained items have their
// leases returned to the buffer pool").
func (c *Channel) Drain() {
	for {
		select {
		case in := <-c.items:
			if in.Lease != nil {
				_ = in.Lease.Return()
			}
		default:
			return
		}
	}
}
