package core

import (
	"context"
	"sync"
	"time"

	ncerr "collectlink/internal/errors"
	"collectlink/internal/metrics"
	"collectlink/internal/retry"
	"collectlink/internal/transport"
	"collectlink/util"
)

// Factory returns a fresh, unconnected connection.
type Factory func() (transport.Connection, error)

// SenderOptions configures a [Sender].  Every field is optional.
type SenderOptions struct {
	// Backoff defaults to retry.DefaultBackoff.  Its RetryIf is replaced
	// by the transport's retryable classification.
	Backoff *retry.Backoff
	Breaker *retry.CircuitBreaker
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Sender pushes requests to one collector over a single reusable
// connection.  A connection past its keep-alive deadline, or one that
// was shut down, is discarded and replaced before the next send.
// Transport failures are retried, each attempt on a healthy connection.
//
// Sends are serialized: a Sender owns its connection exclusively.
type Sender struct {
	factory Factory
	backoff *retry.Backoff
	breaker *retry.CircuitBreaker
	logger  *util.Logger
	metrics *metrics.Collector
	now     func() time.Time

	mu   sync.Mutex
	conn transport.Connection
}

// NewSender returns a Sender creating its connections with f.
func NewSender(f Factory, opts SenderOptions) *Sender {
	bo := opts.Backoff
	if bo == nil {
		bo = retry.DefaultBackoff()
	}
	bo.RetryIf = ncerr.IsRetryable

	cb := opts.Breaker
	if cb == nil {
		cb = retry.NewCircuitBreaker(&retry.CircuitBreakerConfig{IsFailure: ncerr.IsRetryable})
	}

	return &Sender{
		factory: f,
		backoff: bo,
		breaker: cb,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Send delivers req and returns the collector's response.  A response
// with an error status is not an error.
func (s *Sender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.QueuedAt.IsZero() {
		req.QueuedAt = s.now()
	}

	var resp *transport.Response
	err := s.backoff.Do(ctx, func(attempt int) error {
		return s.breaker.Execute(func() error {
			c, err := s.ready(ctx)
			if err != nil {
				return err
			}
			r, err := c.Send(ctx, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Conn returns the current connection, or nil.
func (s *Sender) Conn() transport.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Close shuts the current connection down and waits for it.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		discard(s.conn)
		s.conn = nil
	}
}

// ready returns an Idle connection, replacing the current one when it
// is stale or unusable.
func (s *Sender) ready(ctx context.Context) (transport.Connection, error) {
	if c := s.conn; c != nil {
		switch st := c.State(); {
		case st == transport.Idle && s.fresh(c):
			return c, nil
		case st == transport.Idle:
			s.logger.Verbose("keep-alive of %s expired at %s, reconnecting",
				c.PeerAddr(), c.KeepAliveDeadline().Format("15:04:05"))
		default:
			s.logger.Debug("connection is %s, reconnecting", st)
		}
		discard(c)
		s.conn = nil
	}

	c, err := s.factory()
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	s.conn = c
	return c, nil
}

// fresh reports whether an Idle connection is still inside its
// keep-alive window.  A connection that has not completed a send yet
// has no deadline.
func (s *Sender) fresh(c transport.Connection) bool {
	dl := c.KeepAliveDeadline()
	return dl.IsZero() || s.now().Before(dl)
}

// discard shuts c down and, for transports with an asynchronous
// shutdown, waits for it to finish.
func discard(c transport.Connection) {
	c.Shutdown()
	if w, ok := c.(interface{ Wait() }); ok {
		w.Wait()
	}
}
