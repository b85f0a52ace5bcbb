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

// Package clock provides the monotonic + wall clock used by the snowflake
// generator, the task manager's deadline ticks, and connection idle timers.
// It centralizes the epoch offset so every subsystem that stamps records by
// time, rather than by event, agrees on the same origin.
package clock

import (
	"sync/atomic"
	"time"
)

// DefaultEpochMs is the default custom epoch (2024-01-01T00:00:00Z) used by
// the snowflake generator when no epoch override is configured.
const DefaultEpochMs int64 = 1704067200000

// Clock is a small seam over time.Now so tests can freeze time without
// touching process-global state.
type Clock interface {
	// NowMs returns the current wall time as milliseconds since Unix epoch.
	NowMs() int64

	// NowMonoMs returns a monotonic millisecond counter, suitable for RTT
	// measurement; it has no relation to wall time across process restarts.
	NowMonoMs() int64

	// SinceEpochMs returns NowMs() - epoch, the value snowflake embeds.
	SinceEpochMs() int64

	// Epoch returns the configured custom epoch, in Unix milliseconds.
	Epoch() int64
}

type sysClock struct {
	epoch int64
	start time.Time
}

// New returns a Clock using the real wall clock and a custom epoch in Unix
// milliseconds. An epoch of 0 uses DefaultEpochMs.
func New(epochMs int64) Clock {
	if epochMs <= 0 {
		epochMs = DefaultEpochMs
	}
	return &sysClock{
		epoch: epochMs,
		start: time.Now(),
	}
}

func (c *sysClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

func (c *sysClock) NowMonoMs() int64 {
	return time.Since(c.start).Milliseconds()
}

func (c *sysClock) SinceEpochMs() int64 {
	return c.NowMs() - c.epoch
}

func (c *sysClock) Epoch() int64 {
	return c.epoch
}

// frozen is a Clock implementation for deterministic tests: NowMs is an
// atomically stored value that Advance moves forward explicitly.
type frozen struct {
	epoch int64
	nowMs atomic.Int64
	monoMs atomic.Int64
}

// NewFrozen returns a Clock whose NowMs/NowMonoMs are controlled by Advance,
// for tests that assert on deadline arithmetic without sleeping.
func NewFrozen(startMs, epochMs int64) *FrozenClock {
	if epochMs <= 0 {
		epochMs = DefaultEpochMs
	}
	f := &FrozenClock{inner: &frozen{epoch: epochMs}}
	f.inner.nowMs.Store(startMs)
	return f
}

// FrozenClock wraps the unexported frozen clock so tests get a concrete type
// with Advance while everything else sees the Clock interface.
type FrozenClock struct {
	inner *frozen
}

func (f *FrozenClock) NowMs() int64      { return f.inner.nowMs.Load() }
func (f *FrozenClock) NowMonoMs() int64  { return f.inner.monoMs.Load() }
func (f *FrozenClock) SinceEpochMs() int64 { return f.NowMs() - f.inner.epoch }
func (f *FrozenClock) Epoch() int64      { return f.inner.epoch }

// Advance moves the frozen clock forward by d, updating both the wall and
// monotonic readings together.
func (f *FrozenClock) Advance(d time.Duration) {
	f.inner.nowMs.Add(d.Milliseconds())
	f.inner.monoMs.Add(d.Milliseconds())
}
