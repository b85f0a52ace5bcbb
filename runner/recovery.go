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

// Package runner provides small helpers shared by background goroutines
// (logging hooks, connection loops, task workers) for reporting panics
// recovered at the top of a run loop without crashing the process.
package runner

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// RecoveryCaller reports a value recovered from panic(), tagged with the
// caller name and optional context strings, to stderr. It is a no-op when
// recovered is nil. recover() only stops a panic when called directly by the
// deferred function, so call it inside a closure:
// defer func() { RecoveryCaller(name, recover()) }().
func RecoveryCaller(caller string, recovered interface{}, context ...string) {
	if recovered == nil {
		return
	}

	msg := fmt.Sprintf("%s panic recovered in %s: %v", time.Now().Format(time.RFC3339), caller, recovered)
	if len(context) > 0 {
		msg += " (" + strings.Join(context, ", ") + ")"
	}

	_, _ = fmt.Fprintln(os.Stderr, msg)
}
