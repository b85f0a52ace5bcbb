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

package main

import (
	"context"

	nlxdispatch "github/nabbar/nalix/dispatch"
	nlxpacket "github/nabbar/nalix/packet"
)

// echoMagic/noticeMagic are the packet types this example binary wires into
// its catalog; opcodeEcho/opcodePing distinguish the two handlers registered
// under echoMagic.
const (
	echoMagic   uint32 = 0x4543484F // "ECHO"
	noticeMagic uint32 = 0x4E4F5443 // "NOTC", matches dispatch's built-in notice magic
	opcodeEcho  uint16 = 1
	opcodePing  uint16 = 2
)

func handleEcho(ctx context.Context, pkt *nlxdispatch.PacketView, conn nlxdispatch.Connection) (nlxdispatch.Reply, error) {
	return nlxdispatch.PacketReply(&nlxpacket.Packet{
		Magic:   pkt.Magic,
		Opcode:  pkt.Opcode,
		Payload: pkt.Payload,
	}), nil
}

func handlePing(ctx context.Context, pkt *nlxdispatch.PacketView, conn nlxdispatch.Connection) (nlxdispatch.Reply, error) {
	return nlxdispatch.StringReply("pong"), nil
}
