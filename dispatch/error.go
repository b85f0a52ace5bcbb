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

// Package dispatch implements the MPSC dispatch channel and the
// continuation-passing middleware pipeline described in spec.md §4.5-§4.6:
// RateLimit, Timeout, Permission and Unwrap run ahead of the resolved
// handler; Wrap runs after it. Non-reentrancy is enforced per
// (connection, opcode).
package dispatch

import (
	liberr "github/nabbar/nalix/errors"
)

const (
	ErrorQueueFull liberr.CodeError = iota + liberr.MinPkgDispatch
	ErrorRateLimited
	ErrorTimeout
	ErrorPermissionDenied
	ErrorTransformFailed
	ErrorUnknownHandler
	ErrorBusy
	ErrorInternal
)

func init() {
	liberr.RegisterIdFctMessage(ErrorQueueFull, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorQueueFull:
		return "dispatch channel is at capacity"
	case ErrorRateLimited:
		return "rate limiter rejected this endpoint"
	case ErrorTimeout:
		return "pipeline exceeded its configured timeout"
	case ErrorPermissionDenied:
		return "connection authorization level is below the required level"
	case ErrorTransformFailed:
		return "decrypt or decompress transform failed"
	case ErrorUnknownHandler:
		return "no handler registered for this packet type and opcode"
	case ErrorBusy:
		return "a previous invocation for this (connection, opcode) pair has not completed"
	case ErrorInternal:
		return "handler panicked or returned an unrecognized reply shape"
	}
	return ""
}
