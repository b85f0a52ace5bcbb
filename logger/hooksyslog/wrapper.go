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

package hooksyslog

import "io"

// Wrapper abstracts Unix syslog (sys_syslog.go, log/syslog) from Windows
// Event Log (sys_winlog.go, golang.org/x/sys/windows/svc/eventlog) behind
// one set of severity-specific write methods.
type Wrapper interface {
	io.WriteCloser

	Panic(p []byte) (n int, err error)   // ALERT (syslog) / ERROR (Windows)
	Fatal(p []byte) (n int, err error)   // CRITICAL (syslog) / ERROR (Windows)
	Error(p []byte) (n int, err error)   // ERROR
	Warning(p []byte) (n int, err error) // WARNING
	Info(p []byte) (n int, err error)    // INFORMATIONAL
	Debug(p []byte) (n int, err error)   // DEBUG (syslog) / INFO (Windows)
}
