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

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Hook extends logrus.Hook with direct I/O and background-processing
// lifecycle: Fire() should stay fast and hand heavy work off to a Run()
// goroutine via a channel, RegisterHook attaches the hook to a logger, and
// IsRunning reports whether that goroutine is still active.
type Hook interface {
	logrus.Hook
	io.WriteCloser

	// RegisterHook calls log.AddHook(h) and performs any setup the hook
	// needs (opening files, dialing a remote endpoint, allocating buffers).
	RegisterHook(log *logrus.Logger)

	// Run processes work handed off from Fire() until ctx is cancelled.
	// Call it as "go hook.Run(ctx)"; it should flush pending entries before
	// returning.
	Run(ctx context.Context)

	// IsRunning reports whether Run is currently executing.
	IsRunning() bool
}
