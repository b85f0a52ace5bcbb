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

package packet

import "github.com/bits-and-blooms/bitset"

// Flag bit values, fixed by spec.md §6. The wire carries them packed into a
// single byte; Flags backs that byte with a bitset.BitSet so the pipeline's
// Has/Set/Clear read the same bit-testing primitive the non-reentrancy guard
// in the dispatch package uses for its per-(connection,opcode) tracking.
type Flag uint8

const (
	FlagCompressed  Flag = 0x02
	FlagEncrypted   Flag = 0x04
	FlagFragmented  Flag = 0x08
	FlagReliable    Flag = 0x10
	FlagUnreliable  Flag = 0x20
)

// Flags is the packed flags byte of a Packet header.
type Flags struct {
	bits *bitset.BitSet
}

// NewFlags builds a Flags value from zero or more set bits.
func NewFlags(set ...Flag) Flags {
	f := Flags{bits: bitset.New(8)}
	for _, s := range set {
		f.Set(s)
	}
	return f
}

// FlagsFromByte decodes the wire byte into a Flags value.
func FlagsFromByte(b byte) Flags {
	f := Flags{bits: bitset.New(8)}
	for bit := uint(0); bit < 8; bit++ {
		if b&(1<<bit) != 0 {
			f.bits.Set(bit)
		}
	}
	return f
}

// Byte encodes Flags back to the wire representation.
func (f Flags) Byte() byte {
	var b byte
	if f.bits == nil {
		return 0
	}
	for bit := uint(0); bit < 8; bit++ {
		if f.bits.Test(bit) {
			b |= 1 << bit
		}
	}
	return b
}

func bitIndex(flag Flag) uint {
	b := byte(flag)
	for i := uint(0); i < 8; i++ {
		if b == 1<<i {
			return i
		}
	}
	return 0
}

// Has reports whether flag is set.
func (f Flags) Has(flag Flag) bool {
	if f.bits == nil {
		return false
	}
	return f.bits.Test(bitIndex(flag))
}

// Set sets flag, lazily allocating the backing bitset.
func (f *Flags) Set(flag Flag) {
	if f.bits == nil {
		f.bits = bitset.New(8)
	}
	f.bits.Set(bitIndex(flag))
}

// Clear clears flag.
func (f *Flags) Clear(flag Flag) {
	if f.bits == nil {
		return
	}
	f.bits.Clear(bitIndex(flag))
}

// Valid reports whether the combination is legal: Reliable and Unreliable
// are mutually exclusive (spec.md §3 invariant).
func (f Flags) Valid() bool {
	return !(f.Has(FlagReliable) && f.Has(FlagUnreliable))
}
