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

// Package catalog maps a packet's magic number to its deserializer and its
// packet type to its transformer bundle (encrypt/decrypt/compress/
// decompress/serialize/deserialize), the re-expression of the source's
// static interface methods on packet types as a per-type vtable (spec.md §9,
// "static interface methods on packet types"). Registration happens once at
// startup via explicit Register calls; after that, lookups are read-mostly
// and safe for concurrent readers -- backed by sync.Map, the same
// concurrency primitive the teacher's config component registry uses.
package catalog

import (
	"sync"

	nlxcipher "github/nabbar/nalix/cipher"
	nlxlz4 "github/nabbar/nalix/compress/lz4"
	liberr "github/nabbar/nalix/errors"
	nlxpacket "github/nabbar/nalix/packet"
)

const (
	ErrorUnknownMagic liberr.CodeError = iota + liberr.MinPkgCatalog
	ErrorUnknownType
	ErrorNoCipherConfigured
)

func init() {
	liberr.RegisterIdFctMessage(ErrorUnknownMagic, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnknownMagic:
		return "no deserializer registered for this magic number"
	case ErrorUnknownType:
		return "no transformer registered for this packet type"
	case ErrorNoCipherConfigured:
		return "packet carries the Encrypted flag but no key/suite was supplied"
	}
	return ""
}

// Deserializer turns a raw frame (length prefix included) into a Packet.
type Deserializer func(raw []byte) (*nlxpacket.Packet, error)

// PacketType identifies a family of packets sharing one Transformer. In this
// catalog it is the same numeric space as Packet.Magic: one magic, one
// deserializer, one transformer.
type PacketType uint32

// Transformer bundles the capability functions a packet type exposes,
// replacing the source's static/inherited per-type methods.
type Transformer struct {
	// Serialize/Deserialize may be nil to fall back to the packet
	// package's default header codec.
	Serialize   func(p *nlxpacket.Packet) ([]byte, error)
	Deserialize Deserializer

	// Encrypt/Decrypt operate on the payload only, given the connection's
	// negotiated suite and key.
	Encrypt func(suite nlxcipher.Suite, key, payload []byte) ([]byte, error)
	Decrypt func(suite nlxcipher.Suite, key, payload []byte) ([]byte, error)

	Compress   func(payload []byte) ([]byte, error)
	Decompress func(payload []byte) ([]byte, error)
}

// Catalog is the process-wide registry. It is safe to share across
// goroutines: Register is expected to run only during startup wiring, and
// Lookup is lock-free once populated (sync.Map favors the read-mostly case).
type Catalog struct {
	deserializers sync.Map // uint32 magic -> Deserializer
	transformers  sync.Map // PacketType -> Transformer
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{}
}

// RegisterDeserializer maps magic to a Deserializer. Registering the same
// magic twice replaces the previous entry; callers should only do this
// during startup, before any connection reaches the dispatch pipeline.
func (c *Catalog) RegisterDeserializer(magic uint32, d Deserializer) {
	c.deserializers.Store(magic, d)
}

// RegisterType maps a PacketType to its Transformer.
func (c *Catalog) RegisterType(t PacketType, tr Transformer) {
	c.transformers.Store(t, tr)
}

// RegisterDefault registers the default header codec
// (packet.DeserializeDefault) for magic as both its deserializer and the
// Deserialize half of its transformer, a convenience for packet types that
// need no extra header fields beyond spec.md §6's fixed layout.
func (c *Catalog) RegisterDefault(magic uint32, compress bool, encrypt bool) {
	c.RegisterDeserializer(magic, nlxpacket.DeserializeDefault)

	tr := Transformer{
		Deserialize: nlxpacket.DeserializeDefault,
		Serialize:   func(p *nlxpacket.Packet) ([]byte, error) { return p.Serialize() },
	}
	if compress {
		tr.Compress = nlxlz4.Compress
		tr.Decompress = nlxlz4.Decompress
	}
	if encrypt {
		tr.Encrypt = func(suite nlxcipher.Suite, key, payload []byte) ([]byte, error) {
			return suite.Encrypt(key, payload)
		}
		tr.Decrypt = func(suite nlxcipher.Suite, key, payload []byte) ([]byte, error) {
			return suite.Decrypt(key, payload)
		}
	}
	c.RegisterType(PacketType(magic), tr)
}

// Deserialize looks up the deserializer for the magic number embedded in
// raw (spec.md §4.3 step 2) and invokes it. raw must include the 2-byte
// length prefix.
func (c *Catalog) Deserialize(magic uint32, raw []byte) (*nlxpacket.Packet, error) {
	v, ok := c.deserializers.Load(magic)
	if !ok {
		return nil, ErrorUnknownMagic.Error(nil)
	}
	return v.(Deserializer)(raw)
}

// Lookup returns the Transformer registered for t.
func (c *Catalog) Lookup(t PacketType) (Transformer, error) {
	v, ok := c.transformers.Load(t)
	if !ok {
		return Transformer{}, ErrorUnknownType.Error(nil)
	}
	return v.(Transformer), nil
}

// HasMagic reports whether magic has a registered deserializer, without
// invoking it.
func (c *Catalog) HasMagic(magic uint32) bool {
	_, ok := c.deserializers.Load(magic)
	return ok
}
