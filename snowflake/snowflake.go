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

// Package snowflake generates 64-bit identifiers of the form
// {type:4, machine:12, timestamp:32, sequence:16}, used as Connection IDs,
// Worker IDs and Recurring job handles.
package snowflake

import (
	"encoding/binary"
	"os"
	"sync"

	nlxclock "github/nabbar/nalix/clock"
	encsha "github/nabbar/nalix/encoding/sha256"
	liberr "github/nabbar/nalix/errors"
)

const (
	ErrorMachineOutOfRange liberr.CodeError = iota + liberr.MinPkgSnowflake
	ErrorTypeOutOfRange
	ErrorTimestampOverflow
	ErrorSequenceOverflow
)

func init() {
	liberr.RegisterIdFctMessage(ErrorMachineOutOfRange, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorMachineOutOfRange:
		return "machine id exceeds the 12-bit range"
	case ErrorTypeOutOfRange:
		return "type id exceeds the 4-bit range"
	case ErrorTimestampOverflow:
		return "elapsed time since epoch exceeds the 32-bit millisecond range"
	case ErrorSequenceOverflow:
		return "sequence counter exceeds the 16-bit range within the same millisecond"
	}
	return ""
}

const (
	bitsSequence  = 16
	bitsTimestamp = 32
	bitsMachine   = 12
	bitsType      = 4

	maxSequence  = (1 << bitsSequence) - 1
	maxTimestamp = (1 << bitsTimestamp) - 1
	maxMachine   = (1 << bitsMachine) - 1
	maxType      = (1 << bitsType) - 1

	shiftTimestamp = bitsSequence
	shiftMachine   = bitsSequence + bitsTimestamp
	shiftType      = bitsSequence + bitsTimestamp + bitsMachine
)

// ID is a parsed snowflake identifier.
type ID uint64

// Type returns the 4-bit type field.
func (i ID) Type() uint8 { return uint8((uint64(i) >> shiftType) & maxType) }

// Machine returns the 12-bit machine field.
func (i ID) Machine() uint16 { return uint16((uint64(i) >> shiftMachine) & maxMachine) }

// Timestamp returns the 32-bit millisecond-since-epoch field.
func (i ID) Timestamp() uint32 { return uint32((uint64(i) >> shiftTimestamp) & maxTimestamp) }

// Sequence returns the 16-bit per-millisecond sequence field.
func (i ID) Sequence() uint16 { return uint16(uint64(i) & maxSequence) }

// MachineIDFromHostname derives a 12-bit machine id from the local hostname
// (or name, if the host lookup fails) by hashing it with the SHA-256 coder
// and folding the first two digest bytes into the machine field's range.
// Two processes on the same host collide deterministically, which is the
// point: a process restarted on the same box keeps its machine id across
// restarts without a coordination service.
func MachineIDFromHostname(name string) uint16 {
	if name == "" {
		if h, err := os.Hostname(); err == nil {
			name = h
		}
	}
	sum := encsha.New().Encode([]byte(name))
	if len(sum) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(sum[:2]) & maxMachine
}

// Generator produces monotonically non-decreasing snowflake IDs for a single
// machine/type pair. Generation is non-reentrant per instance: New serializes
// callers behind an internal mutex so the (timestamp, sequence) pair is never
// issued twice.
type Generator interface {
	// New returns the next ID, or a Fatal-class error if the timestamp or
	// sequence counters overflow their bit width.
	New() (ID, error)
}

type generator struct {
	mu      sync.Mutex
	clk     nlxclock.Clock
	machine uint16
	typ     uint8

	lastMs   int64
	sequence uint16
}

// New returns a Generator for the given machine id (0-4095) and type tag
// (0-15), stamping identifiers relative to clk's epoch.
func New(clk nlxclock.Clock, machine uint16, typ uint8) (Generator, error) {
	if machine > maxMachine {
		return nil, ErrorMachineOutOfRange.Error(nil)
	}
	if typ > maxType {
		return nil, ErrorTypeOutOfRange.Error(nil)
	}
	if clk == nil {
		clk = nlxclock.New(0)
	}
	return &generator{clk: clk, machine: machine, typ: typ, lastMs: -1}, nil
}

func (g *generator) New() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.clk.SinceEpochMs()
	if ms < 0 {
		ms = 0
	}
	if ms > maxTimestamp {
		return 0, ErrorTimestampOverflow.Error(nil)
	}

	if ms == g.lastMs {
		if g.sequence == maxSequence {
			// Same millisecond exhausted: fail rather than wrap the
			// sequence and hand out a duplicate ID.
			return 0, ErrorSequenceOverflow.Error(nil)
		}
		g.sequence++
	} else {
		g.lastMs = ms
		g.sequence = 0
	}

	id := (uint64(g.typ&maxType) << shiftType) |
		(uint64(g.machine&maxMachine) << shiftMachine) |
		(uint64(ms) << shiftTimestamp) |
		uint64(g.sequence)

	return ID(id), nil
}
