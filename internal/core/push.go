package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"collectlink/internal/transport"
	"collectlink/util"
)

// PushMode sends the same body Count times, Interval apart, reusing one
// connection for as long as the collector keeps it alive.
type PushMode struct {
	Sender   *Sender
	Closer   io.Closer // released when Run returns; may be nil
	Method   string
	Target   string
	Headers  map[string]string
	Body     []byte
	Count    int
	Interval time.Duration
	Logger   *util.Logger

	// Stdout defaults to os.Stdout when nil.  One line is printed per
	// response.
	Stdout io.Writer
}

func (m *PushMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run pushes every request and returns the first error.  Responses with
// an error status are printed and counted; Run reports them once all
// requests went through.
func (m *PushMode) Run(ctx context.Context) error {
	defer func() {
		m.Sender.Close()
		if m.Closer != nil {
			if err := m.Closer.Close(); err != nil {
				m.Logger.Debug("close: %v", err)
			}
		}
	}()

	count := m.Count
	if count < 1 {
		count = 1
	}

	rejected := 0
	for i := 0; i < count; i++ {
		if i > 0 && m.Interval > 0 {
			timer := time.NewTimer(m.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		req := m.request()
		resp, err := m.Sender.Send(ctx, req)
		if err != nil {
			return fmt.Errorf("request %d/%d: %w", i+1, count, err)
		}
		if resp.StatusCode >= 400 {
			rejected++
		}
		fmt.Fprintf(m.stdout(), "%s %s %s\n", resp.Proto, resp.Status,
			req.ReceivedAt.Sub(req.QueuedAt).Round(time.Millisecond))
	}

	if rejected > 0 {
		return fmt.Errorf("%d of %d requests rejected by the collector", rejected, count)
	}
	return nil
}

func (m *PushMode) request() *transport.Request {
	req := transport.NewRequest(m.Method, m.Target, m.Body)
	for k, v := range m.Headers {
		req.Header.Set(k, v)
	}
	return req
}

var _ Mode = (*PushMode)(nil)
