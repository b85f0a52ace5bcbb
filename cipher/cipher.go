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

// Package cipher composes the symmetric cipher suites the packet catalog
// transforms payloads with: AES-GCM, ChaCha20-Poly1305, XTEA, AES-CTR and
// AES-CBC. It never implements a primitive itself (spec non-goal); it wires
// stdlib crypto/aes and golang.org/x/crypto to a single Suite interface keyed
// by Algorithm tag, the way crypt.Crt composes crypto/cipher.AEAD today.
package cipher

import (
	"crypto/rand"

	liberr "github/nabbar/nalix/errors"
)

const (
	ErrorUnknownAlgorithm liberr.CodeError = iota + liberr.MinPkgCipher
	ErrorInvalidKeySize
	ErrorEncrypt
	ErrorDecrypt
	ErrorAuthenticationFailed
	ErrorShortCiphertext
)

func init() {
	liberr.RegisterIdFctMessage(ErrorUnknownAlgorithm, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnknownAlgorithm:
		return "no cipher suite registered for this algorithm tag"
	case ErrorInvalidKeySize:
		return "key size does not match the algorithm's requirement"
	case ErrorEncrypt:
		return "encrypt operation failed"
	case ErrorDecrypt:
		return "decrypt operation failed"
	case ErrorAuthenticationFailed:
		return "authentication tag verification failed"
	case ErrorShortCiphertext:
		return "ciphertext shorter than the algorithm's nonce/iv framing"
	}
	return ""
}

// Algorithm tags the cipher suite a Packet.Flags()&Encrypted payload was
// protected with. The catalog's Encrypt/Decrypt transformers dispatch on
// this tag; it is carried out of band (connection negotiation), not on the
// wire, per spec.md's packet header layout.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	AlgorithmAESGCM
	AlgorithmChaCha20Poly1305
	AlgorithmXTEA
	AlgorithmAESCTR
	AlgorithmAESCBC
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmAESGCM:
		return "aes-gcm"
	case AlgorithmChaCha20Poly1305:
		return "chacha20-poly1305"
	case AlgorithmXTEA:
		return "xtea"
	case AlgorithmAESCTR:
		return "aes-ctr"
	case AlgorithmAESCBC:
		return "aes-cbc"
	default:
		return "none"
	}
}

// Suite encrypts/decrypts a payload under a given key. Implementations own
// the wire layout described in spec.md §4.4 (nonce|ciphertext|tag for AEADs,
// iv|ciphertext for CTR/CBC, padded-no-tag for XTEA).
type Suite interface {
	Algorithm() Algorithm

	// KeySize is the exact key length this suite requires.
	KeySize() int

	// Encrypt returns the wire-framed ciphertext for plaintext under key.
	Encrypt(key, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt. On AEAD tag mismatch it returns
	// ErrorAuthenticationFailed without revealing which of key/tag failed.
	Decrypt(key, wire []byte) ([]byte, error)
}

// registry maps Algorithm -> Suite, populated once at startup by explicit
// Register calls (never an invisible init()), matching the teacher's
// deliberate SetKeyByte/GenKeyByte setup style.
type registry struct {
	suites map[Algorithm]Suite
}

var defaultRegistry = &registry{suites: make(map[Algorithm]Suite)}

// Register adds (or replaces) the Suite for its own Algorithm tag in the
// default, process-wide registry. Call during startup wiring, before any
// connection reaches the dispatch pipeline.
func Register(s Suite) {
	defaultRegistry.suites[s.Algorithm()] = s
}

// Lookup returns the registered Suite for algo, or ErrorUnknownAlgorithm.
func Lookup(algo Algorithm) (Suite, error) {
	if s, ok := defaultRegistry.suites[algo]; ok {
		return s, nil
	}
	return nil, ErrorUnknownAlgorithm.Error(nil)
}

// RegisterDefaults wires every built-in suite (AES-GCM, ChaCha20-Poly1305,
// XTEA, AES-CTR, AES-CBC) into the default registry. cmd/nalixd calls this
// once at process startup.
func RegisterDefaults() {
	Register(newAESGCM())
	Register(newChaCha20Poly1305())
	Register(newXTEA())
	Register(newAESCTR())
	Register(newAESCBC())
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
