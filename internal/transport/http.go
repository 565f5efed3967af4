package transport

import (
	"context"
	"sync/atomic"

	ncerr "collectlink/internal/errors"
)

// PlainConnection is a Connection over a plain TCP stream.
//
// Its Shutdown is synchronous and final: once shut down the object is
// dead and Connect fails with a BadState error.  Build a new connection
// instead.
type PlainConnection struct {
	base
	dead atomic.Bool
}

// NewPlainConnection returns an unconnected plaintext connection.
func NewPlainConnection(cfg ConnectionConfig, opts Options) *PlainConnection {
	c := &PlainConnection{}
	c.init(cfg, opts, c.close)
	c.logger.Debug("plaintext connection created")
	return c
}

// Connect dials the collector.  The connect timeout bounds the dial and
// a Shutdown aborts it.
func (c *PlainConnection) Connect(ctx context.Context) error {
	dctx, cancel := c.connectContext(ctx)
	defer cancel()
	gen, ok := c.beginConnect(cancel)
	if !ok {
		return c.badState("connect")
	}
	defer c.endConnect(gen)
	if c.dead.Load() {
		c.advance(gen, Connecting, NotConnected)
		return ncerr.BadState("connect", c.addr, "closed")
	}

	nc, err := c.dial(dctx)
	if err != nil {
		if !c.abandon(gen) {
			return c.aborted(ncerr.KindConnectFailure, "connect")
		}
		e := ncerr.Wrap(ncerr.KindConnectFailure, "connect", c.addr, err)
		c.metrics.RecordError(e.Error())
		c.logger.Error("connect failed: %v", err)
		return e
	}

	if !c.install(gen, nc, Connecting, Idle) {
		_ = nc.Close()
		return c.aborted(ncerr.KindConnectFailure, "connect")
	}
	c.logger.Verbose("connected to %s", c.PeerAddr())
	return nil
}

// Send writes req and reads the response.  Cancelling ctx shuts the
// connection down.
func (c *PlainConnection) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.send(ctx, req)
}

// Shutdown closes the socket and leaves the connection NotConnected for
// good.
func (c *PlainConnection) Shutdown() { c.close(nil) }

func (c *PlainConnection) close(owned func() bool) {
	nc, ok := c.retire(owned, nil)
	if !ok {
		return
	}
	c.dead.Store(true)
	if nc != nil {
		c.logger.Verbose("shutdown")
		if err := nc.Close(); err != nil {
			c.logger.Debug("close: %v", err)
		}
	}
	c.state.store(NotConnected)
}
