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
 *
 */

// Package size provides a human-readable byte-size type usable directly in
// viper/yaml/toml configuration (buffer sizes, pool capacities, frame caps).
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count with human-readable parsing/formatting (KiB/MiB/GiB).
type Size int64

const (
	Byte Size = 1
	KiB       = Byte * 1024
	MiB       = KiB * 1024
	GiB       = MiB * 1024
)

// Int64 returns the size as an int64 byte count.
func (s Size) Int64() int64 {
	return int64(s)
}

// Int returns the size as an int byte count.
func (s Size) Int() int {
	return int(s)
}

// String renders the size using the largest unit that divides it evenly,
// e.g. Size(65536).String() == "64KiB".
func (s Size) String() string {
	switch {
	case s != 0 && s%GiB == 0:
		return fmt.Sprintf("%dGiB", s/GiB)
	case s != 0 && s%MiB == 0:
		return fmt.Sprintf("%dMiB", s/MiB)
	case s != 0 && s%KiB == 0:
		return fmt.Sprintf("%dKiB", s/KiB)
	default:
		return fmt.Sprintf("%dB", int64(s))
	}
}

// Parse parses a human-readable size string ("64KiB", "2MiB", "100") into a
// Size. A bare number is interpreted as a byte count.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mul := Size(1)
	low := strings.ToLower(s)

	switch {
	case strings.HasSuffix(low, "gib"):
		mul, s = GiB, s[:len(s)-3]
	case strings.HasSuffix(low, "mib"):
		mul, s = MiB, s[:len(s)-3]
	case strings.HasSuffix(low, "kib"):
		mul, s = KiB, s[:len(s)-3]
	case strings.HasSuffix(low, "g"):
		mul, s = GiB, s[:len(s)-1]
	case strings.HasSuffix(low, "m"):
		mul, s = MiB, s[:len(s)-1]
	case strings.HasSuffix(low, "k"):
		mul, s = KiB, s[:len(s)-1]
	case strings.HasSuffix(low, "b"):
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	return Size(v) * mul, nil
}

// MustParse is like Parse but panics on error; intended for package-level
// defaults, not for parsing user input.
func MustParse(s string) Size {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(p []byte) error {
	v, err := Parse(string(p))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
