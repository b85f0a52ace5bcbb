/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package perm provides an os.FileMode wrapper that parses and renders as an
// octal string ("0644"), usable directly in viper/yaml/toml/json
// configuration for file and directory creation modes.
package perm

import (
	"fmt"
	"os"
	"strconv"
)

// Perm is a Unix file permission mode, marshaled as a 4-digit octal string.
type Perm os.FileMode

// Default file and directory permissions used when a config omits them.
const (
	DefaultFile Perm = 0644
	DefaultPath Perm = 0755
)

// Parse interprets an octal permission string such as "0644" or "644".
func Parse(s string) (Perm, error) {
	if s == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", s, err)
	}

	return Perm(v), nil
}

// FileMode returns the standard library os.FileMode representation.
func (p Perm) FileMode() os.FileMode {
	return os.FileMode(p)
}

// String renders the permission as a 4-digit octal string, e.g. "0644".
func (p Perm) String() string {
	return fmt.Sprintf("%04o", uint32(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Perm) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Perm) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
