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

package main

import (
	"context"
	"strings"
	"sync"
	"time"

	nlxclock "github/nabbar/nalix/clock"
	nlxconfig "github/nabbar/nalix/config"
	nlxconn "github/nabbar/nalix/conn"
	nlxdispatch "github/nabbar/nalix/dispatch"
	nlxlistener "github/nabbar/nalix/listener"
	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
	nlxmetrics "github/nabbar/nalix/metrics"
	nlxbuffer "github/nabbar/nalix/pool/buffer"
	"github/nabbar/nalix/protocol"
	nlxcatalog "github/nabbar/nalix/packet/catalog"
	nlxratelimit "github/nabbar/nalix/ratelimit"
	nlxsnowflake "github/nabbar/nalix/snowflake"
	nlxtask "github/nabbar/nalix/task"
)

// serverComponent adapts a protocol.Server, its supporting pool/catalog/
// pipeline/task-manager stack, and the built-in handler set into a single
// config.Component, so the server's whole lifecycle rides the Manager's
// Start-all/Stop-all-in-reverse sequencing (spec.md §5's "one root context
// drains everything").
type serverComponent struct {
	logger nlxlog.FuncLog
	idGen  nlxsnowflake.Generator
	clk    nlxclock.Clock
	metric *nlxmetrics.Collectors

	mu      sync.Mutex
	running bool
	srv     *protocol.Server
	tasks   *nlxtask.Manager
	dedup   *nlxdispatch.DedupCache
}

func newServerComponent(logger nlxlog.FuncLog, metric *nlxmetrics.Collectors) (*serverComponent, error) {
	clk := nlxclock.New(0)
	idGen, err := nlxsnowflake.New(clk, nlxsnowflake.MachineIDFromHostname(""), 1)
	if err != nil {
		return nil, err
	}
	return &serverComponent{
		logger: logger,
		idGen:  idGen,
		clk:    clk,
		metric: metric,
	}, nil
}

func (c *serverComponent) Name() string { return "socket-server" }

func (c *serverComponent) log(lvl loglvl.Level, msg string, err error) {
	lg := c.logger()
	if lg == nil {
		return
	}
	e := lg.Entry(lvl, msg)
	if err != nil {
		e = e.ErrorAdd(true, err)
	}
	e.Log()
}

func (c *serverComponent) buildCatalog() *nlxcatalog.Catalog {
	cat := nlxcatalog.New()
	cat.RegisterDefault(echoMagic, false, false)
	cat.RegisterDefault(noticeMagic, false, false)
	return cat
}

func (c *serverComponent) buildRegistry() *nlxdispatch.Registry {
	reg := nlxdispatch.NewRegistry()
	reg.Register(echoMagic, opcodeEcho, handleEcho, nlxdispatch.Attributes{}, true)
	reg.Register(echoMagic, opcodePing, handlePing, nlxdispatch.Attributes{}, true)
	reg.Freeze()
	return reg
}

func overflowPolicyFromString(s string) nlxdispatch.OverflowPolicy {
	if strings.EqualFold(s, "pause") {
		return nlxdispatch.OverflowPauseReads
	}
	return nlxdispatch.OverflowDrop
}

// Start builds the pool/catalog/registry/pipeline/task stack from s and
// launches the listener. Called once per config.Manager.Start.
func (c *serverComponent) Start(ctx context.Context, s *nlxconfig.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	c.tasks = nlxtask.New(c.clk).WithMetrics(c.metric)

	pool, err := nlxbuffer.New(s.Pools.SizeClasses, s.Pools.InitialPerClass, s.Pools.MaxPerClass)
	if err != nil {
		return err
	}
	pool.WithMetrics(c.metric)

	limiter := nlxratelimit.New(nlxratelimit.Options{
		Window:      s.RateLimit.Window,
		MaxRequests: s.RateLimit.MaxRequests,
		Lockout:     s.RateLimit.Lockout,
		Metrics:     c.metric,
	})
	if s.RateLimit.SweepInterval > 0 {
		_, _ = c.tasks.Schedule("ratelimit-sweep", s.RateLimit.SweepInterval, func() error {
			limiter.Sweep(s.RateLimit.SweepMaxIdle)
			return nil
		}, nlxtask.RecurringOptions{})
	}

	pipeline := nlxdispatch.NewPipeline(c.buildCatalog(), c.buildRegistry(), limiter)
	c.dedup = nlxdispatch.NewDedupCache(ctx, time.Second)
	pipeline.WithDedup(c.dedup)
	pipeline.WithLogger(c.logger)

	c.srv = protocol.New(protocol.Options{
		Listen: nlxlistener.Options{
			Address:                s.Socket.Address,
			Backlog:                s.Socket.Backlog,
			ReuseAddress:           s.Socket.ReuseAddress,
			AcceptBackoffInitial:   s.Listener.AcceptBackoffInitial,
			AcceptBackoffMax:       s.Listener.AcceptBackoffMax,
			MaxSimultaneousAccepts: s.Socket.MaxAccepts,
			Socket: nlxlistener.SocketOptions{
				NoDelay:         s.Socket.NoDelay,
				KeepAlive:       s.Socket.KeepAlive,
				ReadBufferSize:  s.Socket.ReadBufferSize,
				WriteBufferSize: s.Socket.WriteBufferSize,
			},
			Logger: c.logger,
		},
		MaxConnectionsPerAddress: s.Connection.MaxPerAddress,
		Conn: nlxconn.Options{
			IdleTimeout:    s.Connection.IdleTimeout,
			SendTimeout:    s.Connection.SendTimeout,
			SendQueueDepth: s.Connection.SendQueueDepth,
			MaxFrameSize:   s.Connection.MaxFrameSize,
			Pool:           pool,
		},
		ChannelCapacity: s.Listener.ChannelCapacity,
		ChannelPolicy:   overflowPolicyFromString(s.Listener.ChannelPolicy),
		DispatchWorkers: s.Listener.DispatchWorkers,
		Pipeline:        pipeline,
		IDGen:           c.idGen,
		Logger:          c.logger,
		Metrics:         c.metric,
	})

	if err := c.srv.Start(ctx); err != nil {
		return err
	}

	if beat, werr := c.tasks.ScheduleWorker("server-heartbeat", "diagnostics", func(wctx context.Context, h *nlxtask.WorkerHandle) error {
		<-wctx.Done()
		return nil
	}, nlxtask.WorkerOptions{}); werr == nil {
		if _, derr := c.tasks.ScheduleSelfDiagnostics(30*time.Second, beat); derr != nil {
			c.log(loglvl.WarnLevel, "failed to schedule self-diagnostics", derr)
		}
	} else {
		c.log(loglvl.WarnLevel, "failed to schedule heartbeat worker", werr)
	}

	c.running = true
	c.log(loglvl.InfoLevel, "socket server listening on "+s.Socket.Address, nil)
	return nil
}

// Reload restarts the server against the freshly loaded Settings, the
// "restart itself internally" path config.Component documents for
// components that cannot apply a change in place -- the listen address and
// pool layout can't be swapped under a live listener.
func (c *serverComponent) Reload(ctx context.Context, s *nlxconfig.Settings) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}
	return c.Start(ctx, s)
}

func (c *serverComponent) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	err := c.srv.Stop(ctx)
	c.tasks.Shutdown()
	_ = c.dedup.Close()
	return err
}

func (c *serverComponent) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
