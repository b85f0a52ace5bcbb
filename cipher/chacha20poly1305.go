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
	"golang.org/x/crypto/chacha20poly1305"
)

// chacha implements Suite for ChaCha20-Poly1305. Wire layout: nonce(12) |
// ciphertext | tag(16), matching spec.md §4.4.
type chacha struct{}

func newChaCha20Poly1305() Suite { return chacha{} }

func (chacha) Algorithm() Algorithm { return AlgorithmChaCha20Poly1305 }
func (chacha) KeySize() int         { return chacha20poly1305.KeySize }

func (c chacha) aead(key []byte) (interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}, error) {
	if len(key) != c.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	a, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}
	return a, nil
}

func (c chacha) Encrypt(key, plaintext []byte) ([]byte, error) {
	a, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(chacha20poly1305.NonceSize)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}
	return a.Seal(nonce, nonce, plaintext, nil), nil
}

func (c chacha) Decrypt(key, wire []byte) ([]byte, error) {
	a, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(wire) < chacha20poly1305.NonceSize+16 {
		return nil, ErrorShortCiphertext.Error(nil)
	}
	nonce, ct := wire[:chacha20poly1305.NonceSize], wire[chacha20poly1305.NonceSize:]
	pt, err := a.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrorAuthenticationFailed.Error(nil)
	}
	return pt, nil
}
