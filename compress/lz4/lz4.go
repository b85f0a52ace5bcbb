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

// Package lz4 wraps github.com/pierrec/lz4/v4's block codec with the fixed
// 8-byte {originalLength, compressedLength} header spec.md §4.4 and §6
// require on the wire; pierrec/lz4 itself only emits the raw block, so this
// package is the thin adapter that gives it the catalog's framing contract.
package lz4

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	liberr "github/nabbar/nalix/errors"
)

const (
	ErrorSizeMismatch liberr.CodeError = iota + liberr.MinPkgCompress
	ErrorEncode
	ErrorDecode
	ErrorHeaderTooShort
)

func init() {
	liberr.RegisterIdFctMessage(ErrorSizeMismatch, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorSizeMismatch:
		return "declared length does not match actual bytes consumed"
	case ErrorEncode:
		return "lz4 block encode failed"
	case ErrorDecode:
		return "lz4 block decode failed"
	case ErrorHeaderTooShort:
		return "buffer shorter than the 8-byte lz4 header"
	}
	return ""
}

// HeaderSize is the fixed leading header: originalLength:i32-LE |
// compressedLength:i32-LE.
const HeaderSize = 8

// hashTableSize matches spec.md's "64 K-entry hash table keyed by a
// multiplicative hash of the next 4 bytes" -- pierrec/lz4's CompressBlock
// takes exactly this shape of scratch table.
const hashTableSize = 1 << 16

// Compress encodes src as an LZ4 block prefixed with the fixed header. An
// empty src produces only the 8-byte header (spec.md §6: "Empty streams
// produce only the header").
func Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		out := make([]byte, HeaderSize)
		binary.LittleEndian.PutUint32(out[0:4], 0)
		binary.LittleEndian.PutUint32(out[4:8], 0)
		return out, nil
	}

	dst := make([]byte, HeaderSize+lz4.CompressBlockBound(len(src)))
	hashTable := make([]int, hashTableSize)

	n, err := lz4.CompressBlock(src, dst[HeaderSize:], hashTable)
	if err != nil {
		return nil, ErrorEncode.Error(err)
	}
	if n == 0 {
		// Incompressible input: pierrec returns n==0 to signal "store
		// raw" is the caller's job; fall back to storing src verbatim.
		// Decompress recognises this form by compressedLength ==
		// originalLength when the block does not decode.
		dst = dst[:HeaderSize+len(src)]
		copy(dst[HeaderSize:], src)
		n = len(src)
	} else {
		dst = dst[:HeaderSize+n]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(len(src)))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(n))
	return dst, nil
}

// Decompress reverses Compress. It rejects a declared compressedLength that
// does not match the bytes actually present, and rejects an actual
// decompressed size that does not match the declared originalLength --
// spec.md §4.4: "mismatches between declared lengths and actual consumption
// are fatal errors".
func Decompress(wire []byte) ([]byte, error) {
	if len(wire) < HeaderSize {
		return nil, ErrorHeaderTooShort.Error(nil)
	}

	originalLen := int(binary.LittleEndian.Uint32(wire[0:4]))
	compressedLen := int(binary.LittleEndian.Uint32(wire[4:8]))
	body := wire[HeaderSize:]

	if compressedLen != len(body) {
		return nil, ErrorSizeMismatch.Error(nil)
	}
	if originalLen == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, originalLen)
	n, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		// pierrec reports a decode error for a genuinely malformed block;
		// it may also be the literal-store fallback from Compress, which
		// UncompressBlock cannot parse as a token stream. Try verbatim.
		if compressedLen == originalLen && len(body) == originalLen {
			copy(dst, body)
			return dst, nil
		}
		return nil, ErrorDecode.Error(err)
	}
	if n != originalLen {
		return nil, ErrorSizeMismatch.Error(nil)
	}
	return dst[:n], nil
}
