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
	libcbr "github.com/fxamacker/cbor/v2"
)

// MarshalCBOR encodes p the same way the teacher's multiplexer envelope
// encodes its metadata map, so a logged or mirrored Properties bag decodes
// with a plain cbor.Unmarshal on the receiving side without a bespoke
// schema.
func (p Properties) MarshalCBOR() ([]byte, error) {
	return libcbr.Marshal(map[string]any(p))
}

// UnmarshalCBOR decodes data produced by MarshalCBOR into p, replacing its
// current contents.
func (p *Properties) UnmarshalCBOR(data []byte) error {
	m := make(map[string]any)
	if err := libcbr.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = m
	return nil
}
