package transport

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"collectlink/util"
)

const userAgent = "collectlink/1.0"

// Request is one outbound HTTP message plus the timing the connection
// records while sending it.
type Request struct {
	Method string // defaults to POST
	Target string // request-target, defaults to "/"
	Header http.Header
	Body   []byte

	QueuedAt       time.Time // set by the caller, or by Send when zero
	SentAt         time.Time
	SentCompleteAt time.Time
	ReceivedAt     time.Time
}

// NewRequest returns a request queued now.
func NewRequest(method, target string, body []byte) *Request {
	return &Request{
		Method:   method,
		Target:   target,
		Header:   make(http.Header),
		Body:     body,
		QueuedAt: time.Now(),
	}
}

// Response is one inbound HTTP message.  A status >= 400 is a normal
// response, not a transport error.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	Body       []byte
	// Close is set when the framing of the response forbids reuse of the
	// connection (HTTP/1.0 without keep-alive, body delimited by EOF).
	Close bool
}

// httpRequest converts r to the standard library form.  host fills the
// Host header when r does not carry one.
func (r *Request) httpRequest(host string) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodPost
	}
	target := r.Target
	if target == "" {
		target = "/"
	}
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, err
	}

	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if h := header.Get("Host"); h != "" {
		host = h
		header.Del("Host")
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", userAgent)
	}

	hr := &http.Request{
		Method:        method,
		URL:           u,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Host:          host,
		ContentLength: int64(len(r.Body)),
	}
	if len(r.Body) > 0 {
		hr.Body = io.NopCloser(bytes.NewReader(r.Body))
	}
	return hr, nil
}

// writeRequest serializes hr to w and returns the number of bytes
// written.
func writeRequest(w io.Writer, hr *http.Request) (int64, error) {
	cw := &countingWriter{w: w}
	bw := util.GetWriter(cw)
	defer util.PutWriter(bw)
	if err := hr.Write(bw); err != nil {
		return cw.n, err
	}
	err := bw.Flush()
	return cw.n, err
}

// readResponse reads one full response, body included.
func readResponse(br *bufio.Reader, hr *http.Request) (*Response, error) {
	resp, err := http.ReadResponse(br, hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header,
		Body:       body,
		Close:      resp.Close,
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// countingReader tracks the bytes read from the socket so that the
// metrics see wire bytes rather than decoded body bytes.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// take returns the count accumulated since the previous call.
func (c *countingReader) take() int64 {
	n := c.n
	c.n = 0
	return n
}
