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

// Package protocol is the listener<->dispatch glue spec.md §4 calls the
// "Protocol" component: it owns acceptance policy (the connection limiter),
// builds one conn.Connection per accepted socket, feeds complete frames into
// a dispatch.Channel, and runs the worker pool that pulls from that channel
// and calls dispatch.Pipeline.Process. Neither listener nor conn nor dispatch
// know about each other; this package is the only one that imports all
// three, the same role httpserver/pool plays over httpserver/run instances
// in the teacher repo.
package protocol

import (
	"context"
	"net"
	"sync"
	"time"

	nlxconn "github/nabbar/nalix/conn"
	nlxconnlimit "github/nabbar/nalix/connlimit"
	nlxdispatch "github/nabbar/nalix/dispatch"
	liberr "github/nabbar/nalix/errors"
	"github/nabbar/nalix/listener"
	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
	nlxmetrics "github/nabbar/nalix/metrics"
	nlxbuffer "github/nabbar/nalix/pool/buffer"
	"github/nabbar/nalix/runner"
	nlxsnowflake "github/nabbar/nalix/snowflake"

	"golang.org/x/sync/errgroup"
)

const (
	ErrorAlreadyRunning liberr.CodeError = iota + liberr.MinPkgProtocol
	ErrorNotRunning
)

func init() {
	liberr.RegisterIdFctMessage(ErrorAlreadyRunning, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorAlreadyRunning:
		return "protocol server is already running"
	case ErrorNotRunning:
		return "protocol server is not running"
	}
	return ""
}

// Options configures a Server end to end.
type Options struct {
	Listen listener.Options

	// MaxConnectionsPerAddress caps concurrent connections sharing one
	// remote address (spec.md §4.8). 0 disables the cap.
	MaxConnectionsPerAddress int

	Conn nlxconn.Options

	// ChannelCapacity and ChannelPolicy configure the dispatch.Channel
	// every connection's frames are pushed onto (spec.md §4.5).
	ChannelCapacity int
	ChannelPolicy   nlxdispatch.OverflowPolicy

	// DispatchWorkers is the number of goroutines pulling from the
	// dispatch channel and running the pipeline (spec.md §4.6).
	DispatchWorkers int

	Pipeline *nlxdispatch.Pipeline
	IDGen    nlxsnowflake.Generator

	Logger nlxlog.FuncLog

	// Metrics, when non-nil, receives open-connection and dispatch-queue
	// observations (spec.md §3's domain-stack prometheus wiring). Nil
	// disables all metric updates.
	Metrics *nlxmetrics.Collectors
}

// Server wires a single listener to a dispatch pipeline through a bounded
// channel, honoring the connection limiter before any Connection is built.
type Server struct {
	mu  sync.RWMutex
	opt Options

	ln      *listener.Listener
	limiter *nlxconnlimit.Limiter
	channel *nlxdispatch.Channel

	running bool
	workers sync.WaitGroup
	done    chan struct{}
}

// New builds a Server from opt. Start binds the listener and launches the
// dispatch worker pool.
func New(opt Options) *Server {
	if opt.DispatchWorkers <= 0 {
		opt.DispatchWorkers = 1
	}
	return &Server{
		opt:     opt,
		limiter: nlxconnlimit.New(opt.MaxConnectionsPerAddress),
		channel: nlxdispatch.NewChannel(opt.ChannelCapacity, opt.ChannelPolicy),
	}
}

func (s *Server) logger() nlxlog.FuncLog {
	if s.opt.Logger != nil {
		return s.opt.Logger
	}
	return func() nlxlog.Logger { return nil }
}

func (s *Server) log(lvl loglvl.Level, msg string, err error) {
	lg := s.logger()()
	if lg == nil {
		return
	}
	e := lg.Entry(lvl, msg)
	if err != nil {
		e = e.ErrorAdd(true, err)
	}
	e.Log()
}

// Start binds the listener and launches the dispatch worker pool.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrorAlreadyRunning.Error(nil)
	}

	listenOpt := s.opt.Listen
	listenOpt.OnAccept = s.onAccept
	s.ln = listener.New(listenOpt)

	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.opt.DispatchWorkers; i++ {
		s.workers.Add(1)
		go s.dispatchWorker(s.done)
	}

	if err := s.ln.Start(ctx); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.done)
		s.workers.Wait()
		return err
	}

	return nil
}

// Stop stops accepting connections and drains the dispatch worker pool
// concurrently -- they are independent shutdown paths, so both run under
// one errgroup and Stop returns the first of the two errors, if any.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrorNotRunning.Error(nil)
	}
	s.running = false
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.ln.Stop(gctx)
	})
	g.Go(func() error {
		close(s.done)
		s.workers.Wait()
		return nil
	})

	err := g.Wait()
	s.channel.Drain()
	return err
}

// IsRunning reports whether the listener and worker pool are active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound listen address, or nil before Start succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) onAccept(socket net.Conn) {
	remote := socket.RemoteAddr().String()

	if !s.limiter.TryAcquire(remote) {
		s.log(loglvl.WarnLevel, "rejecting connection: per-address limit reached", nil)
		_ = socket.Close()
		return
	}

	id, err := s.opt.IDGen.New()
	if err != nil {
		s.log(loglvl.ErrorLevel, "failed to mint connection id", err)
		s.limiter.Release(remote)
		_ = socket.Close()
		return
	}

	connOpt := s.opt.Conn
	connOpt.OnFrame = s.onFrame
	connOpt.OnDisconnected = s.onDisconnected

	c := nlxconn.New(id, socket, connOpt)
	if err := c.BeginReceive(); err != nil {
		s.log(loglvl.ErrorLevel, "failed to start connection", err)
		s.limiter.Release(remote)
		_ = socket.Close()
		return
	}

	if s.opt.Metrics != nil {
		s.opt.Metrics.Connections.Inc()
	}
}

// onFrame pushes the frame onto the dispatch channel. Under
// OverflowPauseReads it blocks until the push succeeds, which in turn
// blocks the connection's own read loop -- exactly the "stop reading"
// contract spec.md §4.5 asks for, since OnFrame runs on that goroutine.
// Under OverflowDrop it tries once and returns the lease on failure.
func (s *Server) onFrame(c *nlxconn.Connection, lease *nlxbuffer.Lease) {
	in := nlxdispatch.Inbound{Conn: c, Lease: lease}

	if s.channel.Policy() == nlxdispatch.OverflowPauseReads {
		for !s.channel.Push(in) {
			time.Sleep(time.Millisecond)
		}
		s.reportQueueDepth()
		return
	}

	if !s.channel.Push(in) {
		s.log(loglvl.WarnLevel, "dispatch channel full, dropping frame", nil)
		if s.opt.Metrics != nil {
			s.opt.Metrics.DispatchDrops.Inc()
		}
		_ = lease.Return()
		return
	}
	s.reportQueueDepth()
}

func (s *Server) reportQueueDepth() {
	if s.opt.Metrics != nil {
		s.opt.Metrics.DispatchQueue.Set(float64(s.channel.Len()))
	}
}

func (s *Server) onDisconnected(c *nlxconn.Connection, reason nlxconn.Reason) {
	s.limiter.Release(c.RemoteEndpoint())
	s.opt.Pipeline.ForgetConnection(c.ID())
	if s.opt.Metrics != nil {
		s.opt.Metrics.Connections.Dec()
	}
}

func (s *Server) dispatchWorker(done chan struct{}) {
	defer s.workers.Done()
	defer func() { runner.RecoveryCaller("protocol.dispatchWorker", recover()) }()

	for {
		in, ok := s.channel.Pull(done)
		if !ok {
			return
		}
		s.reportQueueDepth()

		if err := s.opt.Pipeline.Process(in.Conn, in.Lease.View); err != nil {
			s.log(loglvl.WarnLevel, "pipeline rejected frame", err)
			// Process fails on a decode-level error (unknown magic,
			// truncated header, invalid flag combination) and also when
			// serializing or sending its reply fails; every such error gets
			// spec.md §7's ProtocolViolation action: log, then close.
			if nc, ok := in.Conn.(*nlxconn.Connection); ok {
				nc.Close(nlxconn.ReasonProtocolViolation)
			}
		}
		_ = in.Lease.Return()
	}
}
