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

const ivSize = aes.BlockSize // 16

// aesCTR implements Suite for AES-256-CTR. Wire layout: iv(16) | ciphertext,
// matching spec.md §4.4. CTR has no authentication; callers that need
// integrity should prefer AlgorithmAESGCM or AlgorithmChaCha20Poly1305.
type aesCTR struct{}

func newAESCTR() Suite { return aesCTR{} }

func (aesCTR) Algorithm() Algorithm { return AlgorithmAESCTR }
func (aesCTR) KeySize() int         { return aesKeySize }

func (s aesCTR) Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}
	iv, err := randomBytes(ivSize)
	if err != nil {
		return nil, ErrorEncrypt.Error(err)
	}

	out := make([]byte, ivSize+len(plaintext))
	copy(out, iv)
	cipher.NewCTR(block, iv).XORKeyStream(out[ivSize:], plaintext)
	return out, nil
}

func (s aesCTR) Decrypt(key, wire []byte) ([]byte, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	if len(wire) < ivSize {
		return nil, ErrorShortCiphertext.Error(nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrorDecrypt.Error(err)
	}
	iv, ct := wire[:ivSize], wire[ivSize:]

	out := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(out, ct)
	return out, nil
}
