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
	"time"

	nlxcache "github/nabbar/nalix/cache"
)

// fingerprint is the dedup tuple spec.md §3 names: (magic, opcode,
// truncated-timestamp). It is explicitly NOT the header XOR-fold hash
// spec.md §9's open question warns against using for correctness -- this
// is a separate, narrower key built only from the fields the spec actually
// assigns to deduplication.
type fingerprint struct {
	magic   uint32
	opcode  uint16
	bucket  int64
}

// DedupCache recognizes repeated (magic, opcode, truncated-timestamp)
// tuples within a short window, the "optional deduplication cache" spec.md
// §3 describes. It is opt-in: Pipeline only consults one if DedupMiddleware
// is added to the chain, since spec.md §9 leaves its correctness role an
// open question and this implementation never relies on it for anything
// beyond a diagnostic rejection.
type DedupCache struct {
	store  nlxcache.Cache[fingerprint, struct{}]
	bucket time.Duration
}

// NewDedupCache builds a DedupCache whose entries expire after window and
// whose truncated-timestamp bucket width is also window (coarser buckets
// widen the dedup match; finer buckets narrow it). ctx governs the cache's
// background expiry goroutine, stopped by ctx cancellation or Close.
func NewDedupCache(ctx context.Context, window time.Duration) *DedupCache {
	if window <= 0 {
		window = time.Second
	}
	return &DedupCache{
		store:  nlxcache.New[fingerprint, struct{}](ctx, window),
		bucket: window,
	}
}

// Close releases the cache's background expiry goroutine.
func (d *DedupCache) Close() error {
	if d == nil || d.store == nil {
		return nil
	}
	return d.store.Close()
}

// seen reports whether (magic, opcode) was already observed in the current
// truncated-timestamp bucket, recording it if not.
func (d *DedupCache) seen(magic uint32, opcode uint16, now time.Time) bool {
	fp := fingerprint{magic: magic, opcode: opcode, bucket: now.UnixMilli() / d.bucket.Milliseconds()}
	if _, _, ok := d.store.Load(fp); ok {
		return true
	}
	d.store.Store(fp, struct{}{})
	return false
}

// DedupMiddleware drops a repeat of the same (magic, opcode) fingerprint
// seen within cache's current bucket, replying with nothing rather than
// re-running the handler. Per spec.md §9 this is diagnostic, not a
// correctness guarantee: a nil cache disables the stage entirely.
func DedupMiddleware(cache *DedupCache) Middleware {
	return func(ctx *Context, next Next) (Reply, error) {
		if cache == nil {
			return next(ctx)
		}
		if cache.seen(ctx.Packet.Magic, ctx.Packet.Opcode, time.Now()) {
			return NoReply(), nil
		}
		return next(ctx)
	}
}
