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

package packet

import "math"

// EncodeVarInt writes n as a sequence of 0xFF-continuation bytes: each 0xFF
// byte contributes 255, and the first non-0xFF byte (0-254) terminates the
// sequence and contributes its own value. This is spec.md §4.3's
// "variable-length integer" used inside LZ4 blocks and some payloads.
func EncodeVarInt(n int32) []byte {
	if n < 0 {
		n = 0
	}
	var out []byte
	for n >= 0xFF {
		out = append(out, 0xFF)
		n -= 0xFF
	}
	out = append(out, byte(n))
	return out
}

// DecodeVarInt reads a varint from buf, returning the value, the number of
// bytes consumed, and an error if buf is exhausted mid-sequence or the value
// overflows int32.MaxValue (spec.md §4.3 and §8 boundary behavior).
func DecodeVarInt(buf []byte) (value int32, consumed int, err error) {
	var total int64
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		total += int64(b)
		consumed++
		if b != 0xFF {
			if total > math.MaxInt32 {
				return 0, consumed, ErrorVarIntOverflow.Error(nil)
			}
			return int32(total), consumed, nil
		}
		if total > math.MaxInt32 {
			return 0, consumed, ErrorVarIntOverflow.Error(nil)
		}
	}
	return 0, consumed, ErrorVarIntTruncated.Error(nil)
}
