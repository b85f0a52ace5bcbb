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
	"fmt"
	"time"

	nlxpacket "github/nabbar/nalix/packet"
	nlxcatalog "github/nabbar/nalix/packet/catalog"
	nlxratelimit "github/nabbar/nalix/ratelimit"
)

// Next is the continuation a Middleware may call at most once. Not calling
// it short-circuits the pipeline; the Middleware's own return value is
// then what gets sent to the connection (spec.md §4.6: "continuation-
// passing contract").
type Next func(ctx *Context) (Reply, error)

// Middleware is one pipeline stage. It must not mutate shared state
// outside ctx without explicit synchronization (spec.md §4.6).
type Middleware func(ctx *Context, next Next) (Reply, error)

// Chain composes mws outer-to-inner around final: mws[0] is the outermost
// stage, final runs only if every stage calls next(). This is how
// spec.md §4.6's Pre/Core/Post ordering (RateLimit, Timeout, Permission,
// Unwrap, then Handler, then Wrap as the innermost wrapper) is expressed.
func Chain(mws []Middleware, final Next) Next {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		inner := next
		next = func(ctx *Context) (Reply, error) {
			return mw(ctx, inner)
		}
	}
	return next
}

// RateLimitMiddleware rejects when limiter.CheckLimit(remoteEndpoint) is
// false, replying with the rate-limit notice instead of calling next
// (spec.md §4.6, Pre/0).
func RateLimitMiddleware(limiter *nlxratelimit.Limiter) Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		if limiter != nil && !limiter.CheckLimit(ctx.Conn.RemoteEndpoint()) {
			return StringReply("You have been rate limited."), nil
		}
		return next(ctx)
	}
}

// TimeoutMiddleware races the remainder of the pipeline against
// ctx.Attributes.TimeoutMs, replying with a timeout notice on expiry
// (spec.md §4.6, Pre/1). A non-positive TimeoutMs disables the race.
func TimeoutMiddleware() Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		if ctx.Attributes.TimeoutMs <= 0 {
			return next(ctx)
		}

		runCtx, cancel := context.WithTimeout(context.Background(), time.Duration(ctx.Attributes.TimeoutMs)*time.Millisecond)
		defer cancel()

		type result struct {
			reply Reply
			err   error
		}
		done := make(chan result, 1)

		go func() {
			r, e := next(ctx)
			done <- result{r, e}
		}()

		select {
		case r := <-done:
			return r.reply, r.err
		case <-runCtx.Done():
			return StringReply(fmt.Sprintf("Request timeout (%dms)", ctx.Attributes.TimeoutMs)), nil
		}
	}
}

// PermissionMiddleware rejects when the connection's authorization level
// is below the attribute's required level (spec.md §4.6, Pre/2).
func PermissionMiddleware() Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		if ctx.Attributes.Permission.Level > ctx.Conn.Level() {
			return StringReply("Permission denied."), nil
		}
		return next(ctx)
	}
}

// UnwrapMiddleware decrypts then decompresses the packet in place
// according to its flags, looked up from cat by the packet's magic number
// (spec.md §4.6, Pre/3).
func UnwrapMiddleware(cat *nlxcatalog.Catalog) Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		tr, err := cat.Lookup(nlxcatalog.PacketType(ctx.Packet.Magic))
		if err != nil {
			return StringReply("Packet transform failed."), nil
		}

		if ctx.Packet.Flags.Has(nlxpacket.FlagEncrypted) {
			if tr.Decrypt == nil {
				return StringReply("Packet transform failed."), nil
			}
			suite := ctx.Conn.CipherSuite()
			if suite == nil {
				return StringReply("Packet transform failed."), nil
			}
			payload, derr := tr.Decrypt(suite, ctx.Conn.EncryptionKey(), ctx.Packet.Payload)
			if derr != nil {
				return StringReply("Packet transform failed."), nil
			}
			ctx.Packet.Payload = payload
			ctx.Properties["unwrap.decrypted"] = true
		}

		if ctx.Packet.Flags.Has(nlxpacket.FlagCompressed) {
			if tr.Decompress == nil {
				return StringReply("Packet transform failed."), nil
			}
			payload, derr := tr.Decompress(ctx.Packet.Payload)
			if derr != nil {
				return StringReply("Packet transform failed."), nil
			}
			ctx.Packet.Payload = payload
			ctx.Properties["unwrap.decompressed"] = true
		}

		return next(ctx)
	}
}

// WrapMiddleware applies the inverse of Unwrap to the Reply produced by
// next(), when the reply is a Packet and the connection negotiated
// encryption/compression for it (spec.md §4.6, Post/0). Non-packet replies
// (bytes, text notices) pass through unmodified.
func WrapMiddleware(cat *nlxcatalog.Catalog) Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		reply, err := next(ctx)
		if err != nil || reply.Kind != ReplyPacket || reply.Packet == nil {
			return reply, err
		}

		tr, lookupErr := cat.Lookup(nlxcatalog.PacketType(reply.Packet.Magic))
		if lookupErr != nil {
			return reply, nil
		}

		if reply.Packet.Flags.Has(nlxpacket.FlagCompressed) && tr.Compress != nil {
			if out, cerr := tr.Compress(reply.Packet.Payload); cerr == nil {
				reply.Packet.Payload = out
				ctx.Properties["wrap.compressed"] = true
			}
		}
		if reply.Packet.Flags.Has(nlxpacket.FlagEncrypted) && tr.Encrypt != nil {
			suite := ctx.Conn.CipherSuite()
			if suite != nil {
				if out, eerr := tr.Encrypt(suite, ctx.Conn.EncryptionKey(), reply.Packet.Payload); eerr == nil {
					reply.Packet.Payload = out
					ctx.Properties["wrap.encrypted"] = true
				}
			}
		}
		return reply, nil
	}
}
