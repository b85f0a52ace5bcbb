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

// Package conn implements the per-socket read/write loop described in
// spec.md §4.2: length-prefixed framing on read, a FIFO write queue on
// send, and the Connecting/Open/Closing/Closed lifecycle. A Connection
// satisfies dispatch.Connection without importing the dispatch package,
// the same inverted dependency the teacher's httpserver/run package keeps
// against its pool (run never imports pool; pool imports run).
package conn

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	nlxcipher "github/nabbar/nalix/cipher"
	liberr "github/nabbar/nalix/errors"
	nlxpacket "github/nabbar/nalix/packet"
	nlxbuffer "github/nabbar/nalix/pool/buffer"
	"github/nabbar/nalix/runner"
	nlxsnowflake "github/nabbar/nalix/snowflake"
)

const (
	ErrorAlreadyReceiving liberr.CodeError = iota + liberr.MinPkgConn
	ErrorClosed
	ErrorBackpressure
	ErrorProtocolViolation
	ErrorIdleTimeout
)

func init() {
	liberr.RegisterIdFctMessage(ErrorAlreadyReceiving, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorAlreadyReceiving:
		return "BeginReceive called more than once on this connection"
	case ErrorClosed:
		return "connection is closing or already closed"
	case ErrorBackpressure:
		return "send queue is full"
	case ErrorProtocolViolation:
		return "frame length is zero, below the header size, or exceeds the maximum frame size"
	case ErrorIdleTimeout:
		return "no bytes read within the configured idle timeout"
	}
	return ""
}

// State is one of the lifecycle stages spec.md §3 names for a Connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Reason tags why a Connection moved to Closing/Closed, for logging and for
// the error taxonomy in spec.md §7.
type Reason uint8

const (
	ReasonExplicit Reason = iota
	ReasonIOError
	ReasonIdleTimeout
	ReasonProtocolViolation
	ReasonTooManyConnections
	ReasonShutdown
)

func (r Reason) String() string {
	switch r {
	case ReasonExplicit:
		return "explicit"
	case ReasonIOError:
		return "io-error"
	case ReasonIdleTimeout:
		return "idle-timeout"
	case ReasonProtocolViolation:
		return "protocol-violation"
	case ReasonTooManyConnections:
		return "too-many-connections"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Options configures a Connection and supplies the explicit callbacks that
// replace the source's event fan-out (spec.md §4.2: DataReceived,
// Disconnected, ErrorOccurred), matching task.WorkerOptions'
// OnCompleted/OnFailed style rather than a bespoke pub/sub type.
type Options struct {
	IdleTimeout    time.Duration
	SendTimeout    time.Duration
	SendQueueDepth int
	MaxFrameSize   int

	Pool *nlxbuffer.Pool

	// OnFrame is invoked from the read loop's own goroutine for every
	// complete frame; it must not block (spec.md §4.2: "must not block the
	// read loop"). The typical implementation pushes to a dispatch.Channel.
	OnFrame func(c *Connection, lease *nlxbuffer.Lease)

	// OnDisconnected fires exactly once, after the socket is released.
	OnDisconnected func(c *Connection, reason Reason)

	// OnError fires for non-fatal I/O or protocol anomalies worth logging;
	// it may fire more than once before Disconnected.
	OnError func(c *Connection, msg string, err error)
}

// Connection wraps one accepted net.Conn with the framing, write queue and
// lifecycle state machine spec.md §4.2 describes.
type Connection struct {
	id     nlxsnowflake.ID
	socket net.Conn
	remote string
	opt    Options

	state State32

	level         atomic.Uint32
	encryptionKey atomic.Value // []byte
	cipherSuite   atomic.Value // nlxcipher.Suite

	lastActivityMs atomic.Int64

	receiving atomic.Bool
	sendCh    chan []byte
	closeOnce sync.Once
	writeDone chan struct{}
	readDone  chan struct{}

	// pendingReason is set by the read loop just before it returns, and
	// read by the deferred Close call the loop itself triggers.
	pendingReason Reason
}

// State32 is a lock-free State holder.
type State32 struct{ v atomic.Int32 }

func (s *State32) Load() State     { return State(s.v.Load()) }
func (s *State32) Store(st State)  { s.v.Store(int32(st)) }
func (s *State32) CAS(old, new State) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}

// New wraps socket as a Connection identified by id, not yet reading.
// Call BeginReceive to start the read loop.
func New(id nlxsnowflake.ID, socket net.Conn, opt Options) *Connection {
	if opt.SendQueueDepth <= 0 {
		opt.SendQueueDepth = 128
	}
	if opt.MaxFrameSize <= 0 {
		opt.MaxFrameSize = 0xFFFF
	}

	c := &Connection{
		id:        id,
		socket:    socket,
		remote:    socket.RemoteAddr().String(),
		opt:       opt,
		sendCh:    make(chan []byte, opt.SendQueueDepth),
		writeDone: make(chan struct{}),
		readDone:  make(chan struct{}),
	}
	c.state.Store(StateConnecting)
	c.lastActivityMs.Store(time.Now().UnixMilli())
	return c
}

// ID returns the connection's snowflake identifier.
func (c *Connection) ID() uint64 { return uint64(c.id) }

// RemoteEndpoint returns the remote address string, used as the rate
// limiter and connection limiter fingerprint (spec.md §3).
func (c *Connection) RemoteEndpoint() string { return c.remote }

// State reports the current lifecycle stage.
func (c *Connection) State() State { return c.state.Load() }

// Level returns the connection's authorization level.
func (c *Connection) Level() uint8 { return uint8(c.level.Load()) }

// SetLevel updates the authorization level, typically once after a
// handshake/login handler runs.
func (c *Connection) SetLevel(level uint8) { c.level.Store(uint32(level)) }

// EncryptionKey returns the negotiated symmetric key, or nil before a
// handshake sets one.
func (c *Connection) EncryptionKey() []byte {
	if v, ok := c.encryptionKey.Load().([]byte); ok {
		return v
	}
	return nil
}

// SetEncryptionKey stores the negotiated key (spec.md §3: "set after
// handshake or zero").
func (c *Connection) SetEncryptionKey(key []byte) { c.encryptionKey.Store(key) }

// CipherSuite returns the suite negotiated for this connection, or nil.
func (c *Connection) CipherSuite() nlxcipher.Suite {
	if v, ok := c.cipherSuite.Load().(nlxcipher.Suite); ok {
		return v
	}
	return nil
}

// SetCipherSuite stores the suite negotiated for this connection.
func (c *Connection) SetCipherSuite(s nlxcipher.Suite) { c.cipherSuite.Store(s) }

// LastActivityMs reports the last time a byte was read, in Unix
// milliseconds, used by the idle sweep and by metrics.
func (c *Connection) LastActivityMs() int64 { return c.lastActivityMs.Load() }

func (c *Connection) touch() { c.lastActivityMs.Store(time.Now().UnixMilli()) }

// BeginReceive starts the read loop and the write-queue drain goroutine.
// It is at-most-once per connection (spec.md §4.2); a second call returns
// ErrorAlreadyReceiving.
func (c *Connection) BeginReceive() error {
	if !c.receiving.CompareAndSwap(false, true) {
		return ErrorAlreadyReceiving.Error(nil)
	}

	c.state.Store(StateOpen)
	go c.writeLoop()
	go c.readLoop()
	return nil
}

// Send enqueues data for write, blocking up to Options.SendTimeout before
// failing with ErrorBackpressure. It satisfies dispatch.Connection.
func (c *Connection) Send(data []byte) error {
	return c.SendAsync(data)
}

// SendAsync is the spec.md §4.2 SendAsync contract: FIFO per connection,
// bounded internal queue, configurable block-then-fail on backpressure.
func (c *Connection) SendAsync(data []byte) error {
	if c.state.Load() >= StateClosing {
		return ErrorClosed.Error(nil)
	}

	if c.opt.SendTimeout <= 0 {
		select {
		case c.sendCh <- data:
			return nil
		default:
			return ErrorBackpressure.Error(nil)
		}
	}

	timer := time.NewTimer(c.opt.SendTimeout)
	defer timer.Stop()

	select {
	case c.sendCh <- data:
		return nil
	case <-timer.C:
		return ErrorBackpressure.Error(nil)
	}
}

// Close idempotently drains pending writes (best effort, no extra grace
// beyond letting the write loop finish what is already queued) then
// releases the socket. Calling Close more than once is a no-op beyond the
// first (spec.md §8: "Double Close(c) is a no-op after the first").
func (c *Connection) Close(reason Reason) {
	c.closeOnce.Do(func() {
		c.state.Store(StateClosing)
		close(c.sendCh)
		<-c.writeDone

		_ = c.socket.Close()
		c.state.Store(StateClosed)

		if c.opt.OnDisconnected != nil {
			c.opt.OnDisconnected(c, reason)
		}
	})
}

func (c *Connection) writeLoop() {
	defer close(c.writeDone)
	defer func() { runner.RecoveryCaller("conn.writeLoop:"+c.remote, recover()) }()

	for data := range c.sendCh {
		if _, err := c.socket.Write(data); err != nil {
			c.reportError("write failed", err)
			return
		}
	}
}

// readLoop is the spec.md §4.2 framing state machine: read 2-byte length,
// read length-2 more bytes into a rented lease, hand the frame to OnFrame,
// loop. It never blocks on OnFrame (the callback contract requires that of
// its caller) and is the sole place that can observe idle timeouts.
func (c *Connection) readLoop() {
	defer close(c.readDone)
	defer func() { runner.RecoveryCaller("conn.readLoop:"+c.remote, recover()) }()
	defer func() { c.Close(c.closeReasonFromState()) }()

	var lenBuf [2]byte

	for {
		if c.opt.IdleTimeout > 0 {
			_ = c.socket.SetReadDeadline(time.Now().Add(c.opt.IdleTimeout))
		}

		if _, err := io.ReadFull(c.socket, lenBuf[:]); err != nil {
			c.handleReadError(err)
			return
		}

		declared := int(lenBuf[0]) | int(lenBuf[1])<<8
		if declared < nlxpacket.HeaderSize || declared > c.opt.MaxFrameSize {
			c.reportError("malformed frame length", ErrorProtocolViolation.Error(nil))
			c.pendingReason = ReasonProtocolViolation
			return
		}

		bodyLen := declared - 2
		lease := c.rentLease(declared)
		copy(lease.View[0:2], lenBuf[:])

		if bodyLen > 0 {
			if _, err := io.ReadFull(c.socket, lease.View[2:]); err != nil {
				_ = lease.Return()
				c.handleReadError(err)
				return
			}
		}

		c.touch()
		if c.opt.OnFrame != nil {
			c.opt.OnFrame(c, lease)
		} else {
			_ = lease.Return()
		}
	}
}

func (c *Connection) rentLease(n int) *nlxbuffer.Lease {
	if c.opt.Pool != nil {
		return c.opt.Pool.Rent(n)
	}
	return &nlxbuffer.Lease{View: make([]byte, n)}
}

func (c *Connection) handleReadError(err error) {
	if errors.Is(err, io.EOF) {
		c.pendingReason = ReasonExplicit
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		c.reportError("idle timeout", ErrorIdleTimeout.Error(nil))
		c.pendingReason = ReasonIdleTimeout
		return
	}
	c.reportError("read failed", err)
	c.pendingReason = ReasonIOError
}

func (c *Connection) closeReasonFromState() Reason {
	return c.pendingReason
}

func (c *Connection) reportError(msg string, err error) {
	if c.opt.OnError != nil {
		c.opt.OnError(c, msg, err)
	}
}
