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
	"sort"
	"unicode/utf8"

	nlxpacket "github/nabbar/nalix/packet"
)

// ReplyKind tags which shape a Reply carries. This is the re-expression of
// the source's generic return-type dispatch (spec.md §9): rather than
// reflecting on a handler's return type, the handler builds one of these
// tagged constructors and the pipeline inspects Kind.
type ReplyKind uint8

const (
	ReplyNone ReplyKind = iota
	ReplyPacket
	ReplyBytes
	ReplyString
)

// Reply is the handler's outcome, sent back through Conn.Send by
// Pipeline.Process after the Wrap stage has transformed a packet reply.
// Build one with NoReply/PacketReply/BytesReply/StringReply.
type Reply struct {
	Kind   ReplyKind
	Packet *nlxpacket.Packet
	Bytes  []byte
	Text   string
}

// NoReply means the handler has nothing to send (the common case for
// fire-and-forget opcodes).
func NoReply() Reply { return Reply{Kind: ReplyNone} }

// PacketReply sends p, serialized, as-is.
func PacketReply(p *nlxpacket.Packet) Reply { return Reply{Kind: ReplyPacket, Packet: p} }

// BytesReply sends raw bytes on the wire without a Packet header, for
// handlers that already produced a framed payload themselves.
func BytesReply(b []byte) Reply { return Reply{Kind: ReplyBytes, Bytes: b} }

// StringReply wraps s into one or more text notice packets, splitting on
// rune boundaries when the largest text size class cannot hold the content
// (see TextPacketBuilder).
func StringReply(s string) Reply { return Reply{Kind: ReplyString, Text: s} }

// TextPacketBuilder turns a string reply into one or more Packets tagged
// with magic/opcode. Only the largest of Classes (text size classes, in
// bytes) is used, as the chunk size limit; no smaller class is selected,
// and every chunk carries the same magic/opcode whatever its size.
type TextPacketBuilder struct {
	Magic   uint32
	Opcode  uint16
	Classes []int
}

// Build splits s into chunks that fit within the registered text size
// classes, never cutting a chunk in the middle of a UTF-8 rune.
func (b TextPacketBuilder) Build(s string) []*nlxpacket.Packet {
	classes := append([]int(nil), b.Classes...)
	sort.Ints(classes)
	if len(classes) == 0 {
		classes = []int{256, 512, 1024}
	}
	maxClass := classes[len(classes)-1]

	var out []*nlxpacket.Packet
	remaining := s
	for len(remaining) > 0 {
		n := chunkLen(remaining, maxClass)
		chunk := remaining[:n]
		remaining = remaining[n:]

		out = append(out, &nlxpacket.Packet{
			Magic:   b.Magic,
			Opcode:  b.Opcode,
			Payload: []byte(chunk),
		})
	}
	if len(out) == 0 {
		out = append(out, &nlxpacket.Packet{Magic: b.Magic, Opcode: b.Opcode})
	}
	return out
}

// chunkLen returns the number of bytes of s (<= max) to take for one
// chunk, backing off to the previous rune boundary if max lands inside a
// multi-byte rune.
func chunkLen(s string, max int) int {
	if len(s) <= max {
		return len(s)
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if n == 0 {
		return max
	}
	return n
}
