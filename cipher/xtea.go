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

package cipher

import (
	"encoding/binary"

	"golang.org/x/crypto/xtea"
)

const (
	xteaBlockSize = 8
	xteaKeySize   = 16
)

// xteaSuite implements Suite for XTEA in ECB-over-padded-blocks mode: no
// AEAD tag, payload zero-padded to an 8-byte multiple, matching spec.md
// §4.4's "XTEA: payload padded to 8-byte multiple, no tag".
type xteaSuite struct{}

func newXTEA() Suite { return xteaSuite{} }

func (xteaSuite) Algorithm() Algorithm { return AlgorithmXTEA }
func (xteaSuite) KeySize() int         { return xteaKeySize }

// frameAndPad prefixes plaintext with its own 2-byte LE length (so Decrypt
// can trim the zero padding back off exactly) then pads to an 8-byte
// boundary, since XTEA carries no tag to otherwise mark the real end.
func frameAndPad(p []byte) []byte {
	framed := make([]byte, 2+len(p))
	binary.LittleEndian.PutUint16(framed, uint16(len(p)))
	copy(framed[2:], p)

	rem := len(framed) % xteaBlockSize
	if rem == 0 {
		return framed
	}
	out := make([]byte, len(framed)+(xteaBlockSize-rem))
	copy(out, framed)
	return out
}

func (s xteaSuite) Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	block, err := xtea.NewCipher(key)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}

	padded := frameAndPad(plaintext)
	out := make([]byte, len(padded))
	for off := 0; off < len(padded); off += xteaBlockSize {
		block.Encrypt(out[off:off+xteaBlockSize], padded[off:off+xteaBlockSize])
	}
	return out, nil
}

func (s xteaSuite) Decrypt(key, wire []byte) ([]byte, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	if len(wire) < xteaBlockSize || len(wire)%xteaBlockSize != 0 {
		return nil, ErrorShortCiphertext.Error(nil)
	}
	block, err := xtea.NewCipher(key)
	if err != nil {
		return nil, ErrorDecrypt.Error(err)
	}

	out := make([]byte, len(wire))
	for off := 0; off < len(wire); off += xteaBlockSize {
		block.Decrypt(out[off:off+xteaBlockSize], wire[off:off+xteaBlockSize])
	}

	if len(out) < 2 {
		return nil, ErrorDecrypt.Error(nil)
	}
	n := int(binary.LittleEndian.Uint16(out))
	if n > len(out)-2 {
		return nil, ErrorDecrypt.Error(nil)
	}
	return out[2 : 2+n], nil
}
