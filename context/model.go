/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

// Package context provides a generic, thread-safe key/value store bound to a
// context.Context, used by packages that need concurrent-safe storage that
// expires with a parent context (logger fields, handler registries, closer
// registries) without reaching for a bare sync.Map at every call site.
package context

import (
	"context"
	"sync"
)

// FuncWalk is called for every entry during Walk/WalkLimit. Returning false
// stops the iteration early.
type FuncWalk[K comparable] func(key K, val interface{}) bool

// Config is a thread-safe map of K to interface{}, bound to a context.Context.
// It is safe for concurrent use by multiple goroutines.
type Config[K comparable] interface {
	context.Context

	// GetContext returns the context.Context this Config is bound to.
	GetContext() context.Context

	// Load returns the value stored for key, if any.
	Load(key K) (interface{}, bool)

	// Store sets the value for key.
	Store(key K, val interface{})

	// Delete removes key from the map.
	Delete(key K)

	// LoadOrStore returns the existing value for key if present, otherwise
	// stores and returns val.
	LoadOrStore(key K, val interface{}) (interface{}, bool)

	// LoadAndDelete removes key and returns its value, if any.
	LoadAndDelete(key K) (interface{}, bool)

	// Walk iterates every entry in unspecified order until fct returns false.
	Walk(fct FuncWalk[K])

	// WalkLimit iterates only the entries whose key is in validKeys, or every
	// entry when validKeys is empty.
	WalkLimit(fct FuncWalk[K], validKeys ...K)

	// Clean removes every entry without affecting the bound context.
	Clean()

	// Clone returns an independent copy of the map bound to ctx. A nil ctx
	// reuses the original context.
	Clone(ctx context.Context) Config[K]
}

type cfg[K comparable] struct {
	context.Context
	m *sync.Map
}

// New returns a Config bound to ctx. A nil ctx defaults to context.Background().
func New[K comparable](ctx context.Context) Config[K] {
	if ctx == nil {
		ctx = context.Background()
	}

	return &cfg[K]{
		Context: ctx,
		m:       new(sync.Map),
	}
}

func (o *cfg[K]) GetContext() context.Context {
	if o == nil {
		return context.Background()
	}
	return o.Context
}

func (o *cfg[K]) Load(key K) (interface{}, bool) {
	return o.m.Load(key)
}

func (o *cfg[K]) Store(key K, val interface{}) {
	o.m.Store(key, val)
}

func (o *cfg[K]) Delete(key K) {
	o.m.Delete(key)
}

func (o *cfg[K]) LoadOrStore(key K, val interface{}) (interface{}, bool) {
	return o.m.LoadOrStore(key, val)
}

func (o *cfg[K]) LoadAndDelete(key K) (interface{}, bool) {
	return o.m.LoadAndDelete(key)
}

func (o *cfg[K]) Walk(fct FuncWalk[K]) {
	if fct == nil {
		return
	}

	o.m.Range(func(key, val interface{}) bool {
		return fct(key.(K), val)
	})
}

func (o *cfg[K]) WalkLimit(fct FuncWalk[K], validKeys ...K) {
	if fct == nil {
		return
	}

	if len(validKeys) == 0 {
		o.Walk(fct)
		return
	}

	allow := make(map[K]struct{}, len(validKeys))
	for _, k := range validKeys {
		allow[k] = struct{}{}
	}

	o.m.Range(func(key, val interface{}) bool {
		k := key.(K)
		if _, ok := allow[k]; !ok {
			return true
		}
		return fct(k, val)
	})
}

func (o *cfg[K]) Clean() {
	o.m.Range(func(key, _ interface{}) bool {
		o.m.Delete(key)
		return true
	})
}

func (o *cfg[K]) Clone(ctx context.Context) Config[K] {
	if ctx == nil {
		ctx = o.Context
	}

	n := &cfg[K]{
		Context: ctx,
		m:       new(sync.Map),
	}

	o.m.Range(func(key, val interface{}) bool {
		n.m.Store(key, val)
		return true
	})

	return n
}
