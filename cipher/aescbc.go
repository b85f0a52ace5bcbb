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

// aesCBC implements Suite for AES-256-CBC with PKCS#7 padding. Wire layout:
// iv(16) | ciphertext, matching spec.md §4.4.
type aesCBC struct{}

func newAESCBC() Suite { return aesCBC{} }

func (aesCBC) Algorithm() Algorithm { return AlgorithmAESCBC }
func (aesCBC) KeySize() int         { return aesKeySize }

func pkcs7Pad(p []byte, blockSize int) []byte {
	padLen := blockSize - (len(p) % blockSize)
	out := make([]byte, len(p)+padLen)
	copy(out, p)
	for i := len(p); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

func pkcs7Unpad(p []byte, blockSize int) ([]byte, error) {
	if len(p) == 0 || len(p)%blockSize != 0 {
		return nil, ErrorDecrypt.Error(nil)
	}
	padLen := int(p[len(p)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(p) {
		return nil, ErrorDecrypt.Error(nil)
	}
	for _, b := range p[len(p)-padLen:] {
		if int(b) != padLen {
			return nil, ErrorDecrypt.Error(nil)
		}
	}
	return p[:len(p)-padLen], nil
}

func (s aesCBC) Encrypt(key, plaintext []byte) ([]byte, error) {
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

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)
	return out, nil
}

func (s aesCBC) Decrypt(key, wire []byte) ([]byte, error) {
	if len(key) != s.KeySize() {
		return nil, ErrorInvalidKeySize.Error(nil)
	}
	if len(wire) < ivSize+aes.BlockSize || (len(wire)-ivSize)%aes.BlockSize != 0 {
		return nil, ErrorShortCiphertext.Error(nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrorDecrypt.Error(err)
	}
	iv, ct := wire[:ivSize], wire[ivSize:]

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
	return pkcs7Unpad(out, aes.BlockSize)
}
