package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	ncerr "collectlink/internal/errors"
	"collectlink/internal/metrics"
	"collectlink/util"
)

// base holds what both transports share: the state gate, the socket
// handle and the send/receive path.  mu guards the handle only and is
// never held across I/O.
type base struct {
	cfg     ConnectionConfig
	addr    string
	host    string
	dialer  Dialer
	logger  *util.Logger
	metrics *metrics.Collector
	state   stateMachine

	mu   sync.Mutex
	nc   net.Conn
	br   *bufio.Reader
	cr   *countingReader
	peer string

	// gen is bumped by every shutdown.  A connect only touches the
	// handle and the state while the generation it started in is
	// current.
	gen     uint64
	cancel  context.CancelFunc // aborts the pending connect
	closing chan struct{}      // closed when an asynchronous shutdown completes

	deadline atomic.Int64 // unix nanoseconds, valid while Idle
	sent     atomic.Int64 // requests written on the current socket

	// shutdown is the transport's own shutdown, invoked when an
	// operation fails.  It does nothing unless owned reports true under
	// mu; a nil owned always proceeds.
	shutdown func(owned func() bool)
}

func (b *base) init(cfg ConnectionConfig, opts Options, shutdown func(owned func() bool)) {
	b.cfg = cfg
	b.addr = cfg.Address
	b.host = cfg.serverName()
	b.dialer = opts.Dialer
	if b.dialer == nil {
		b.dialer = &TCPDialer{Timeout: cfg.ConnectTimeout}
	}
	b.logger = opts.Logger.With(fmt.Sprintf("conn#%d %s", nextID(), cfg.Address))
	b.metrics = opts.Metrics
	b.shutdown = shutdown
}

// ── accessors ────────────────────────────────────────────────────────

// State returns the current state.
func (b *base) State() State { return b.state.load() }

// Address returns the configured collector endpoint.
func (b *base) Address() string { return b.addr }

// KeepAliveDeadline returns the instant after which an Idle connection
// must not be reused.
func (b *base) KeepAliveDeadline() time.Time {
	n := b.deadline.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// PeerAddr returns the remote address of the last established socket.
func (b *base) PeerAddr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peer
}

func (b *base) badState(op string) error {
	return ncerr.BadState(op, b.addr, b.state.load().String())
}

// ── socket handle ────────────────────────────────────────────────────

// connectContext applies the connect timeout to dial and handshake.
func (b *base) connectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.cfg.ConnectTimeout > 0 {
		return context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *base) dial(ctx context.Context) (net.Conn, error) {
	b.logger.Verbose("connecting")
	nc, err := b.dialer.Dial(ctx, "tcp", b.addr)
	if err != nil {
		return nil, err
	}
	setTCPKeepAlive(nc, b.cfg.TCPKeepAlive, b.logger)
	return nc, nil
}

// beginConnect moves NotConnected to Connecting and registers cancel so
// that a Shutdown aborts the dial and the handshake.  It returns the
// generation the connect belongs to.
func (b *base) beginConnect(cancel context.CancelFunc) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.transition(NotConnected, Connecting) {
		return 0, false
	}
	b.cancel = cancel
	return b.gen, true
}

// endConnect unregisters the cancel of the connect of gen.
func (b *base) endConnect(gen uint64) {
	b.mu.Lock()
	if b.gen == gen {
		b.cancel = nil
	}
	b.mu.Unlock()
}

// install makes nc the handle of the connect of gen and moves the state
// from -> to.  It fails once a Shutdown has superseded the connect; the
// caller then owns nc and must close it.
func (b *base) install(gen uint64, nc net.Conn, from, to State) bool {
	cr := &countingReader{r: nc}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen || !b.state.transition(from, to) {
		return false
	}
	b.nc = nc
	b.cr = cr
	b.br = bufio.NewReader(cr)
	b.peer = nc.RemoteAddr().String()
	b.sent.Store(0)
	b.deadline.Store(0)
	b.metrics.ConnectionOpened()
	return true
}

// advance moves the connect of gen from -> to unless a Shutdown has
// superseded it.
func (b *base) advance(gen uint64, from, to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen == gen && b.state.transition(from, to)
}

// superseded reports whether a Shutdown ran since the connect of gen
// began.
func (b *base) superseded(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen != gen
}

// abandon shuts the connection down after the connect of gen failed.  It
// reports false when a Shutdown had already superseded the connect.
func (b *base) abandon(gen uint64) bool {
	owned := false
	b.shutdown(func() bool {
		owned = b.gen == gen
		return owned
	})
	return owned
}

// retire starts a shutdown.  It supersedes the current generation,
// cancels a pending connect, moves the state to ShuttingDown and
// detaches the handle, which it returns.  It reports false, doing
// nothing, when owned says no or a shutdown is already pending.  A
// non-nil done is published for Wait.
func (b *base) retire(owned func() bool, done chan struct{}) (net.Conn, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if owned != nil && !owned() {
		return nil, false
	}
	if b.state.swap(ShuttingDown) == ShuttingDown {
		return nil, false
	}
	b.gen++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if done != nil {
		b.closing = done
	}
	nc := b.nc
	b.nc, b.br, b.cr = nil, nil, nil
	if nc != nil {
		b.metrics.ConnectionClosed()
	}
	return nc, true
}

func (b *base) current() net.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nc
}

// abort shuts the connection down if nc is still its socket.  An
// operation that outlived its socket must not close a newer one.
func (b *base) abort(nc net.Conn) {
	b.shutdown(func() bool { return b.nc == nc })
}

// fail shuts the connection down and builds the error reported for op.
func (b *base) fail(ctx context.Context, nc net.Conn, kind ncerr.Kind, op string, err error) error {
	b.abort(nc)
	if cerr := ctx.Err(); cerr != nil {
		err = fmt.Errorf("%w: %w", cerr, err)
	}
	e := ncerr.Wrap(kind, op, b.addr, err)
	b.metrics.RecordError(e.Error())
	b.logger.Error("%s failed: %v", op, err)
	return e
}

// aborted reports an operation whose socket was shut down under it.
func (b *base) aborted(kind ncerr.Kind, op string) error {
	e := ncerr.Wrap(kind, op, b.addr, ncerr.ErrShutdown)
	b.metrics.RecordError(e.Error())
	return e
}

// ── send / receive ───────────────────────────────────────────────────

func (b *base) send(ctx context.Context, req *Request) (*Response, error) {
	hr, err := req.httpRequest(b.host)
	if err != nil {
		return nil, fmt.Errorf("send %s: invalid request target %q: %w", b.addr, req.Target, err)
	}

	if !b.state.transition(Idle, Sending) {
		return nil, b.badState("send")
	}

	b.mu.Lock()
	nc, br, cr := b.nc, b.br, b.cr
	b.mu.Unlock()
	if nc == nil {
		b.abort(nil)
		return nil, b.aborted(ncerr.KindSendFailure, "send")
	}

	stop := context.AfterFunc(ctx, func() { b.abort(nc) })
	defer stop()

	now := time.Now()
	if req.QueuedAt.IsZero() {
		req.QueuedAt = now
	}
	req.SentAt = now
	if b.sent.Add(1) > 1 {
		b.metrics.KeepAliveReused()
	}

	if b.cfg.SendTimeout > 0 {
		_ = nc.SetWriteDeadline(now.Add(b.cfg.SendTimeout))
	}
	n, err := writeRequest(nc, hr)
	b.metrics.BytesSent(n)
	if err != nil {
		return nil, b.fail(ctx, nc, ncerr.KindSendFailure, "send", err)
	}
	_ = nc.SetWriteDeadline(time.Time{})
	req.SentCompleteAt = time.Now()
	b.metrics.RequestSent()
	b.logger.Debug("%s %s sent, %d bytes", hr.Method, hr.URL.RequestURI(), n)

	if !b.state.transition(Sending, Receiving) {
		return nil, b.aborted(ncerr.KindSendFailure, "send")
	}

	if b.cfg.ReceiveTimeout >= time.Second {
		_ = nc.SetReadDeadline(time.Now().Add(b.cfg.ReceiveTimeout))
	}
	resp, err := readResponse(br, hr)
	b.metrics.BytesReceived(cr.take())
	if err != nil {
		return nil, b.fail(ctx, nc, ncerr.KindReceiveFailure, "receive", err)
	}
	_ = nc.SetReadDeadline(time.Time{})
	req.ReceivedAt = time.Now()
	b.metrics.ResponseReceived(resp.StatusCode)
	if resp.StatusCode >= 400 {
		b.logger.Warn("response %s", resp.Status)
	} else {
		b.logger.Debug("response %s, %d bytes of body", resp.Status, len(resp.Body))
	}

	keep, deadline := decideKeepAlive(resp, req.ReceivedAt, b.cfg.DefaultKeepAlive)
	if !keep {
		b.logger.Debug("peer closes the connection, shutting down")
		b.abort(nc)
		return resp, nil
	}

	b.deadline.Store(deadline.UnixNano())
	if !b.state.transition(Receiving, Idle) {
		return nil, b.aborted(ncerr.KindReceiveFailure, "receive")
	}
	b.logger.Debug("keep alive until %s", deadline.Format("15:04:05"))
	return resp, nil
}
