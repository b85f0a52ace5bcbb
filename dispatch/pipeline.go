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

	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
	nlxpacket "github/nabbar/nalix/packet"
	nlxcatalog "github/nabbar/nalix/packet/catalog"
	nlxratelimit "github/nabbar/nalix/ratelimit"
	"github/nabbar/nalix/runner"
)

// Pipeline wires the dispatch channel, the packet catalog, the handler
// registry and the built-in middleware stages into the single entry point
// workers call per inbound item (spec.md §4.6).
type Pipeline struct {
	Catalog  *nlxcatalog.Catalog
	Registry *Registry

	chain  []Middleware
	guard  *reentrancyGuard
	logger nlxlog.FuncLog
}

// NewPipeline builds a Pipeline. limiter may be nil to disable rate
// limiting entirely.
func NewPipeline(cat *nlxcatalog.Catalog, reg *Registry, limiter *nlxratelimit.Limiter) *Pipeline {
	return &Pipeline{
		Catalog:  cat,
		Registry: reg,
		guard:    newReentrancyGuard(),
		chain: []Middleware{
			RateLimitMiddleware(limiter),
			TimeoutMiddleware(),
			PermissionMiddleware(),
			UnwrapMiddleware(cat),
			WrapMiddleware(cat),
		},
	}
}

// WithDedup appends the optional dedup stage to the chain, innermost of the
// Pre-stage group (after Unwrap, before the handler runs). cache may be nil,
// in which case the stage is a pass-through -- see DedupMiddleware.
func (p *Pipeline) WithDedup(cache *DedupCache) *Pipeline {
	p.chain = append(p.chain, DedupMiddleware(cache))
	return p
}

// WithLogger attaches fct as the pipeline's diagnostic logger. When set,
// Process mirrors any Properties the middleware chain recorded for a
// packet (which transforms ran) to a debug-level entry, CBOR-encoded the
// same way a control packet would carry them. A nil fct disables this.
func (p *Pipeline) WithLogger(fct nlxlog.FuncLog) *Pipeline {
	p.logger = fct
	return p
}

// ForgetConnection drops the non-reentrancy guard's bookkeeping for
// connID, called when a connection closes.
func (p *Pipeline) ForgetConnection(connID uint64) {
	p.guard.forgetConnection(connID)
}

// Process decodes raw (a length-prefixed frame) via the catalog, runs it
// through the middleware chain and the resolved handler, and sends
// whatever Reply results back through conn.Send. Errors returned are
// catalog/decode and send failures only: the built-in middleware stages
// reply with notices, while an error returned alongside the chain's Reply
// (a handler error, or Busy from the non-reentrancy guard) is discarded and
// only that Reply is sent -- NoReply for Busy, so nothing goes out.
func (p *Pipeline) Process(conn Connection, raw []byte) error {
	magic, err := peekMagic(raw)
	if err != nil {
		return err
	}

	pkt, err := p.Catalog.Deserialize(magic, raw)
	if err != nil {
		return err
	}
	if !pkt.Flags.Valid() {
		return nlxpacket.ErrorInvalidFlagCombination.Error(nil)
	}

	entry, ok := p.Registry.lookup(pkt.Magic, pkt.Opcode)
	if !ok {
		reply := StringReply("No handler registered for this request.")
		return p.send(conn, reply)
	}

	ctx := NewContext(pkt, conn, entry.attributes)

	final := func(ctx *Context) (Reply, error) {
		return p.invokeHandler(ctx, entry)
	}

	reply, _ := Chain(p.chain, final)(ctx)
	p.logProperties(ctx)
	return p.send(conn, reply)
}

// logProperties mirrors ctx.Properties to the diagnostic logger, CBOR-
// encoded, when the chain recorded anything and a logger is attached.
func (p *Pipeline) logProperties(ctx *Context) {
	if p.logger == nil || len(ctx.Properties) == 0 {
		return
	}

	lg := p.logger()
	if lg == nil {
		return
	}

	raw, err := ctx.Properties.MarshalCBOR()
	if err != nil {
		return
	}

	lg.Entry(loglvl.DebugLevel, "packet properties").FieldAdd("properties_cbor", raw).Log()
}

func (p *Pipeline) invokeHandler(ctx *Context, entry registryEntry) (reply Reply, err error) {
	connID := ctx.Conn.ID()
	opcode := ctx.Packet.Opcode

	if !entry.reentrant {
		if !p.guard.tryEnter(connID, opcode) {
			return NoReply(), ErrorBusy.Error(nil)
		}
		defer p.guard.leave(connID, opcode)
	}

	defer func() {
		if r := recover(); r != nil {
			runner.RecoveryCaller("dispatch.handler", r)
			reply = StringReply("internal error")
			err = nil
		}
	}()

	view := &PacketView{Magic: ctx.Packet.Magic, Opcode: ctx.Packet.Opcode, Payload: ctx.Packet.Payload}
	return entry.handler(context.Background(), view, ctx.Conn)
}

func (p *Pipeline) send(conn Connection, reply Reply) error {
	switch reply.Kind {
	case ReplyNone:
		return nil
	case ReplyBytes:
		return conn.Send(reply.Bytes)
	case ReplyString:
		builder := TextPacketBuilder{Magic: noticeMagic, Opcode: noticeOpcode, Classes: []int{256, 512, 1024}}
		for _, pkt := range builder.Build(reply.Text) {
			wire, err := pkt.Serialize()
			if err != nil {
				return err
			}
			if err := conn.Send(wire); err != nil {
				return err
			}
		}
		return nil
	case ReplyPacket:
		if reply.Packet == nil {
			return nil
		}
		wire, err := reply.Packet.Serialize()
		if err != nil {
			return err
		}
		return conn.Send(wire)
	default:
		return nil
	}
}

// noticeMagic/noticeOpcode identify the built-in text notice packet type
// used for rate-limit/timeout/permission/transform-failure messages
// (spec.md §6, "Control packets").
const (
	noticeMagic  uint32 = 0x4E4F5443 // "NOTC"
	noticeOpcode uint16 = 0
)

func peekMagic(raw []byte) (uint32, error) {
	if len(raw) < 2+4 {
		return 0, nlxpacket.ErrorHeaderTruncated.Error(nil)
	}
	return uint32(raw[2]) | uint32(raw[3])<<8 | uint32(raw[4])<<16 | uint32(raw[5])<<24, nil
}
