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
	"crypto/aes"
	"crypto/cipher"
)

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
	aesKeySize   = 32
)

// aesGCM implements Suite for AES-256-GCM. Wire layout: nonce(12) |
// ciphertext | tag(16), matching spec.md §4.4.
type aesGCM struct{}

func newAESGCM() Suite { return aesGCM{} }

func (aesGCM) Algorithm() Algorithm { return AlgorithmAESGCM }
func (aesGCM) KeySize() int         { return aesKeySize }

func (s aesGCM) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}
	return cipher.NewGCM(block)
}

func (s aesGCM) Encrypt(key, plaintext []byte) ([]byte, error) {
	a, err := s.aead(key)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(gcmNonceSize)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}
	return a.Seal(nonce, nonce, plaintext, nil), nil
}

func (s aesGCM) Decrypt(key, wire []byte) ([]byte, error) {
	a, err := s.aead(key)
	if err != nil {
		return nil, err
	}
	if len(wire) < gcmNonceSize+gcmTagSize {
		return nil, ErrorShortCiphertext.Error(nil)
	}
	nonce, ct := wire[:gcmNonceSize], wire[gcmNonceSize:]
	pt, err := a.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrorAuthenticationFailed.Error(nil)
	}
	return pt, nil
}
