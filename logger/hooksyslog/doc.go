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

// Package hooksyslog is a logrus hook that ships entries to syslog
// asynchronously: Fire pushes onto a 250-entry buffered channel and returns,
// while a goroutine started via Run(ctx) drains it and performs the actual
// write, reconnecting on a one-second interval if the connection drops.
// Connection errors go to stdout rather than back through logrus, since a
// syslog outage shouldn't itself become a logging failure.
//
// sys_syslog.go (build tag linux || darwin) backs this with log/syslog over
// the local socket, tcp, udp or unixgram; sys_winlog.go (build tag windows)
// backs it with golang.org/x/sys/windows/svc/eventlog, collapsing the RFC
// 5424 severities down to Windows' three event types. EnableAccessLog swaps
// the hook from writing formatted fields to writing entry.Message verbatim,
// for access-log-style output.
package hooksyslog
