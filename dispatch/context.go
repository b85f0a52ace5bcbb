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
	"time"

	nlxcipher "github/nabbar/nalix/cipher"
	nlxpacket "github/nabbar/nalix/packet"
)

// Connection is the subset of conn.Connection the pipeline depends on. It
// is declared here, not imported from conn, so dispatch never depends on
// the connection's read/write loop -- conn depends on dispatch, not the
// other way around (spec.md §2 data flow).
type Connection interface {
	ID() uint64
	RemoteEndpoint() string
	Level() uint8
	EncryptionKey() []byte
	CipherSuite() nlxcipher.Suite
	Send(data []byte) error
}

// Permission is the authorization attribute a packet/opcode declares.
type Permission struct {
	Level uint8
}

// Attributes carries the per-packet middleware configuration resolved by
// the handler registry entry for (packet type, opcode) -- spec.md §4.6.
type Attributes struct {
	TimeoutMs  int
	Permission Permission
}

// Properties is the pipeline context's free-form bag (string -> any),
// mirroring the teacher's ioutils/multiplexer envelope's metadata map.
type Properties map[string]any

// Context carries a single packet through the middleware chain. It is not
// safe to retain or share across pipeline invocations.
type Context struct {
	Packet     *nlxpacket.Packet
	Conn       Connection
	Attributes Attributes
	Properties Properties

	startedAt time.Time
}

// NewContext builds a Context for one inbound packet.
func NewContext(p *nlxpacket.Packet, c Connection, attrs Attributes) *Context {
	return &Context{
		Packet:     p,
		Conn:       c,
		Attributes: attrs,
		Properties: make(Properties),
		startedAt:  time.Now(),
	}
}

// Elapsed reports time since the context was created, used by the Timeout
// middleware's notice text.
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.startedAt)
}
