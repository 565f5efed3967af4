package transport

import "context"

// ConnectCallback receives the outcome of ConnectAsync.  detail is the
// human-readable form of err, empty on success.
type ConnectCallback func(err error, detail string)

// SendCallback receives the outcome of SendAsync.  resp is nil when err
// is not.
type SendCallback func(err error, detail string, resp *Response)

// ConnectAsync runs c.Connect on its own goroutine and invokes cb
// exactly once, never on the caller's stack.
func ConnectAsync(ctx context.Context, c Connection, cb ConnectCallback) {
	go func() {
		err := c.Connect(ctx)
		cb(err, detail(err))
	}()
}

// SendAsync runs c.Send on its own goroutine and invokes cb exactly
// once, never on the caller's stack.  A rejected send (BadState) is
// reported through cb as well.
func SendAsync(ctx context.Context, c Connection, req *Request, cb SendCallback) {
	go func() {
		resp, err := c.Send(ctx, req)
		cb(err, detail(err), resp)
	}()
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
