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

// Package packet defines the wire-format Packet record (spec.md §3, §6), its
// fixed little-endian header codec, and the varint encoding used inside LZ4
// blocks and length-prefixed payloads.
package packet

import (
	"encoding/binary"

	liberr "github/nabbar/nalix/errors"
)

const (
	ErrorLengthMismatch liberr.CodeError = iota + liberr.MinPkgPacket
	ErrorLengthTooShort
	ErrorFrameTooLarge
	ErrorInvalidFlagCombination
	ErrorHeaderTruncated
	ErrorVarIntOverflow
	ErrorVarIntTruncated
)

func init() {
	liberr.RegisterIdFctMessage(ErrorLengthMismatch, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorLengthMismatch:
		return "declared frame length does not match the number of bytes read"
	case ErrorLengthTooShort:
		return "declared frame length is smaller than the fixed header size"
	case ErrorFrameTooLarge:
		return "declared frame length exceeds the maximum frame size"
	case ErrorInvalidFlagCombination:
		return "packet flags combine Reliable and Unreliable, which is illegal"
	case ErrorHeaderTruncated:
		return "buffer is shorter than the fixed header fields it declares"
	case ErrorVarIntOverflow:
		return "varint value exceeds int32.MaxValue"
	case ErrorVarIntTruncated:
		return "varint sequence ended without a terminating byte"
	}
	return ""
}

// HeaderSize is the fixed header: length(2) + magic(4) + opcode(2) +
// flags(1) + priority(1) + transport(1).
const HeaderSize = 2 + 4 + 2 + 1 + 1 + 1

// MaxFrameSize is the largest value the u16 length field can hold.
const MaxFrameSize = 0xFFFF

// Packet is the logical record described by spec.md §3. Length is derived,
// never stored independently, so it can never drift from HeaderSize+len(Payload).
type Packet struct {
	Magic     uint32
	Opcode    uint16
	Flags     Flags
	Priority  Priority
	Transport Transport
	Payload   []byte

	// Timestamp and MonoTicks are optional, per spec.md §3; zero means unset.
	Timestamp int64
	MonoTicks int64
}

// Length returns the total wire length, header included.
func (p *Packet) Length() int {
	return HeaderSize + len(p.Payload)
}

// ResetForPool implements pool/object.Resettable so Packet instances can be
// recycled through a pool/object.Pool (spec.md §4: "object pool
// for packet instances").
func (p *Packet) ResetForPool() {
	p.Magic = 0
	p.Opcode = 0
	p.Flags = Flags{}
	p.Priority = PriorityNone
	p.Transport = TransportNull
	p.Payload = p.Payload[:0]
	p.Timestamp = 0
	p.MonoTicks = 0
}

// EncodeHeader writes the fixed header fields (everything but length and
// payload) into dst, which must be at least HeaderSize-2 bytes (the header
// minus the 2-byte length prefix, which the caller owns since it depends on
// the final frame size).
func (p *Packet) EncodeHeader(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], p.Magic)
	binary.LittleEndian.PutUint16(dst[4:6], p.Opcode)
	dst[6] = p.Flags.Byte()
	dst[7] = byte(p.Priority)
	dst[8] = byte(p.Transport)
}

// Serialize returns the full wire frame: length:u16-LE | magic:u32-LE |
// opcode:u16-LE | flags:u8 | priority:u8 | transport:u8 | payload.
func (p *Packet) Serialize() ([]byte, error) {
	total := p.Length()
	if total > MaxFrameSize {
		return nil, ErrorFrameTooLarge.Error(nil)
	}
	if !p.Flags.Valid() {
		return nil, ErrorInvalidFlagCombination.Error(nil)
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(total))
	p.EncodeHeader(buf[2:11])
	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// DeserializeDefault decodes raw (the frame as read off the wire, length
// prefix included) using the fixed header layout with no type-specific
// extra fields -- the shape every magic falls back to unless the catalog
// registers a more specific Deserializer. See spec.md §4.3 steps 1-4.
func DeserializeDefault(raw []byte) (*Packet, error) {
	if len(raw) < 2 {
		return nil, ErrorHeaderTruncated.Error(nil)
	}
	declared := int(binary.LittleEndian.Uint16(raw[0:2]))
	if declared != len(raw) {
		return nil, ErrorLengthMismatch.Error(nil)
	}
	if declared < HeaderSize {
		return nil, ErrorLengthTooShort.Error(nil)
	}
	if declared > MaxFrameSize {
		return nil, ErrorFrameTooLarge.Error(nil)
	}

	p := &Packet{
		Magic:     binary.LittleEndian.Uint32(raw[2:6]),
		Opcode:    binary.LittleEndian.Uint16(raw[6:8]),
		Flags:     FlagsFromByte(raw[8]),
		Priority:  Priority(raw[9]),
		Transport: Transport(raw[10]),
	}
	if !p.Flags.Valid() {
		return nil, ErrorInvalidFlagCombination.Error(nil)
	}

	payload := raw[HeaderSize:]
	p.Payload = append([]byte(nil), payload...)
	return p, nil
}
