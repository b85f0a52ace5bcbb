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
 *
 */

package atomic

import (
	"sync/atomic"
)

// typedValue backs Value[T]: a sync/atomic.Value restricted to T, with
// separate configurable fallbacks for an empty Load and an empty Store.
type typedValue[T any] struct {
	av *atomic.Value // current value
	dl *atomic.Value // fallback returned by Load when av is empty
	ds *atomic.Value // fallback substituted by Store when given an empty T
}

// defaultValue boxes a fallback T so it can live in an atomic.Value even
// when T itself is an interface or zero.
type defaultValue[T any] struct {
	v T
}

func newDefault[T any](v T) defaultValue[T] {
	return defaultValue[T]{v: v}
}

func (d defaultValue[T]) GetDefault() T {
	return d.v
}

func (o *typedValue[T]) SetDefaultLoad(def T) {
	o.dl.Store(newDefault[T](def))
}

func (o *typedValue[T]) SetDefaultStore(def T) {
	o.ds.Store(newDefault[T](def))
}

// getDefault unwraps a defaultValue[T] previously stored in i, or T's zero
// value if nothing of that shape is there.
func (o *typedValue[T]) getDefault(i any) T {
	if v, k := Cast[defaultValue[T]](i); !k {
		var tmp T
		return tmp
	} else {
		return v.GetDefault()
	}
}

func (o *typedValue[T]) getDefaultLoad() T {
	return o.getDefault(o.dl.Load())
}

func (o *typedValue[T]) getDefaultStore() T {
	return o.getDefault(o.ds.Load())
}

// Load returns the current value, falling back to the configured default
// load value if empty or not castable to T.
func (o *typedValue[T]) Load() (val T) {
	if v, k := Cast[T](o.av.Load()); !k {
		return o.getDefaultLoad()
	} else {
		return v
	}
}

// Store sets val, substituting the configured default store value when val
// is empty.
func (o *typedValue[T]) Store(val T) {
	if IsEmpty[T](val) {
		o.av.Store(o.getDefaultStore())
	} else {
		o.av.Store(val)
	}
}

// Swap stores new (substituting the default store value if new is empty)
// and returns the previous value.
func (o *typedValue[T]) Swap(new T) (old T) {
	if IsEmpty[T](new) {
		new = o.getDefaultStore()
	}

	if v, k := Cast[T](o.av.Swap(new)); !k {
		return o.getDefaultLoad()
	} else {
		return v
	}
}

func (o *typedValue[T]) CompareAndSwap(old, new T) (swapped bool) {
	if IsEmpty[T](old) {
		old = o.getDefaultStore()
	}

	if IsEmpty[T](new) {
		new = o.getDefaultStore()
	}

	return o.av.CompareAndSwap(old, new)
}
