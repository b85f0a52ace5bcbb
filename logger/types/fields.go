/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package types

// Canonical field names used as logrus.Fields keys across the logger
// subsystem, so every sink and formatter agrees on where to find them.
const (
	FieldTime  = "time"  // RFC3339 timestamp
	FieldLevel = "level" // "debug", "info", "warn", "error", "fatal", "panic"

	FieldStack  = "stack"  // multi-line trace, error level and above
	FieldCaller = "caller" // "package.function" or "package.Type.method"
	FieldFile   = "file"   // source file name, not full path
	FieldLine   = "line"   // line within FieldFile

	FieldMessage = "message" // human-readable description
	FieldError   = "error"   // err.Error()
	FieldData    = "data"    // extra structured payload
)
