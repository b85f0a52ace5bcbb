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

// Package listener implements the accept loop described in spec.md §4.1: a
// single TCP bind, a backoff-guarded Accept loop, and the Start/Stop/
// IsRunning lifecycle the teacher's httpserver/run package exposes for its
// http.Server equivalent. Accepted sockets are handed to AcceptFunc, which
// owns everything past the accept -- building the conn.Connection, checking
// the connection limiter, and starting the read loop is deliberately left to
// the caller (the protocol package) so listener stays ignorant of framing,
// dispatch and limits the same way httpserver/run stays ignorant of routing.
package listener

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	liberr "github/nabbar/nalix/errors"
	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
	"github/nabbar/nalix/runner"
)

const (
	ErrorAlreadyRunning liberr.CodeError = iota + liberr.MinPkgListener
	ErrorBind
	ErrorNotRunning
)

func init() {
	liberr.RegisterIdFctMessage(ErrorAlreadyRunning, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorAlreadyRunning:
		return "listener is already running"
	case ErrorBind:
		return "failed to bind the listen address"
	case ErrorNotRunning:
		return "listener is not running"
	}
	return ""
}

// minBackoff/maxBackoff are the Accept retry delay bounds used when Options
// leaves AcceptBackoffInitial/AcceptBackoffMax at zero, doubling from the
// initial value and capping at the max, reset to zero on the next successful
// Accept (spec.md §4.1: "temporary accept errors back off rather than
// busy-loop").
const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = time.Second
)

// AcceptFunc receives one accepted socket. It owns the socket from this
// point on: it is responsible for closing it if it declines the connection.
type AcceptFunc func(socket net.Conn)

// SocketOptions configures the accepted TCP sockets, applied right after
// Accept returns (spec.md §4.1's "socket options" bullet).
type SocketOptions struct {
	NoDelay        bool
	KeepAlive      time.Duration
	ReadBufferSize int
	WriteBufferSize int
}

// Options configures a Listener.
type Options struct {
	// Address is the host:port to bind, passed to net.Listen("tcp", ...).
	Address string

	// Backlog sets the pending-connection queue length passed to listen(2).
	// 0 takes Go's own default (effectively SOMAXCONN). Honored on unix
	// builds only; windows falls back to net.Listen's default.
	Backlog int

	// ReuseAddress requests SO_REUSEADDR on the listening socket. Only
	// meaningful together with a non-zero Backlog: a zero Backlog already
	// goes through plain net.Listen, which sets SO_REUSEADDR on unix by
	// default regardless of this flag.
	ReuseAddress bool

	// AcceptBackoffInitial and AcceptBackoffMax bound the Accept retry delay
	// on transient errors (spec.md §4.1). Zero takes the package defaults
	// minBackoff/maxBackoff.
	AcceptBackoffInitial time.Duration
	AcceptBackoffMax     time.Duration

	// MaxSimultaneousAccepts caps the number of concurrently open sockets
	// the OS-level accept loop itself will allow in flight, wrapping the
	// listener with golang.org/x/net/netutil.LimitListener (spec.md §4.1).
	// 0 disables the cap at this layer (the connection limiter in
	// package connlimit still applies per remote address).
	MaxSimultaneousAccepts int

	Socket SocketOptions

	// OnAccept is called for every accepted socket, after SocketOptions
	// have been applied. Required.
	OnAccept AcceptFunc

	// Logger supplies the injected logger this listener logs through,
	// construction-time rather than a package singleton (spec.md §2's
	// ambient logging requirement), mirroring httpserver/run's o.logger().
	Logger nlxlog.FuncLog
}

// Listener owns one TCP bind and its accept loop.
type Listener struct {
	mu  sync.RWMutex
	opt Options

	ln      net.Listener
	running bool

	ctx context.Context
	cnl context.CancelFunc

	stopped chan struct{}
}

// New returns a Listener configured by opt. The socket is not bound until
// Start is called.
func New(opt Options) *Listener {
	return &Listener{opt: opt}
}

func (l *Listener) logger() nlxlog.FuncLog {
	if l.opt.Logger != nil {
		return l.opt.Logger
	}
	return func() nlxlog.Logger { return nil }
}

func (l *Listener) log(lvl loglvl.Level, msg string, err error) {
	fct := l.logger()
	lg := fct()
	if lg == nil {
		return
	}
	e := lg.Entry(lvl, msg)
	if err != nil {
		e = e.ErrorAdd(true, err)
	}
	e.Log()
}

// Start binds the address and launches the accept loop in the background.
// It mirrors httpserver/run.Start: the caller's ctx governs the loop's
// lifetime, and Start returns once the socket is bound (or bind fails).
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrorAlreadyRunning.Error(nil)
	}

	ln, err := bindTCP(l.opt.Address, l.opt.Backlog, l.opt.ReuseAddress)
	if err != nil {
		return ErrorBind.Error(err)
	}

	if l.opt.MaxSimultaneousAccepts > 0 {
		ln = netutil.LimitListener(ln, l.opt.MaxSimultaneousAccepts)
	}

	l.ln = ln
	l.ctx, l.cnl = context.WithCancel(ctx)
	l.stopped = make(chan struct{})
	l.running = true

	go l.acceptLoop(l.ctx, ln, l.stopped)
	l.log(loglvl.InfoLevel, fmt.Sprintf("listener bound on %s", l.ln.Addr().String()), nil)
	return nil
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener, done chan struct{}) {
	defer close(done)
	defer func() { runner.RecoveryCaller("listener.acceptLoop:"+l.opt.Address, recover()) }()

	backoff := time.Duration(0)

	for {
		socket, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				backoff = l.nextBackoff(backoff)
				l.log(loglvl.WarnLevel, "transient accept error, backing off", err)
				time.Sleep(backoff)
				continue
			}

			l.log(loglvl.ErrorLevel, "accept loop terminated", err)
			return
		}

		backoff = 0
		applySocketOptions(socket, l.opt.Socket)
		l.opt.OnAccept(socket)
	}
}

func (l *Listener) nextBackoff(cur time.Duration) time.Duration {
	initial, max := minBackoff, maxBackoff
	if l.opt.AcceptBackoffInitial > 0 {
		initial = l.opt.AcceptBackoffInitial
	}
	if l.opt.AcceptBackoffMax > 0 {
		max = l.opt.AcceptBackoffMax
	}

	if cur <= 0 {
		return initial
	}
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}

func applySocketOptions(socket net.Conn, opt SocketOptions) {
	tc, ok := socket.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(opt.NoDelay)
	if opt.KeepAlive > 0 {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(opt.KeepAlive)
	}
	if opt.ReadBufferSize > 0 {
		_ = tc.SetReadBuffer(opt.ReadBufferSize)
	}
	if opt.WriteBufferSize > 0 {
		_ = tc.SetWriteBuffer(opt.WriteBufferSize)
	}
}

// Stop closes the listening socket and cancels the accept loop, waiting for
// it to return (spec.md §4.1: "Stop closes the listening socket; in-flight
// Accept calls return promptly").
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrorNotRunning.Error(nil)
	}
	ln := l.ln
	cnl := l.cnl
	stopped := l.stopped
	l.running = false
	l.mu.Unlock()

	cnl()
	_ = ln.Close()

	select {
	case <-stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.log(loglvl.InfoLevel, "listener stopped", nil)
	return nil
}

// IsRunning reports whether the accept loop is active.
func (l *Listener) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

// Addr returns the bound address, or nil if not started.
func (l *Listener) Addr() net.Addr {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}
