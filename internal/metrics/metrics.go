// Package metrics provides lightweight, lock-free counters and gauges
// for tracking the runtime statistics of collector connections.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics shared by every connection of a
// process.  A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	handshakesTotal   atomic.Int64
	requestsTotal     atomic.Int64
	keepAliveReuses   atomic.Int64
	responses2xx      atomic.Int64
	responses4xx      atomic.Int64
	responses5xx      atomic.Int64
	responsesOther    atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	certHits          atomic.Int64
	certMisses        atomic.Int64
	certReloads       atomic.Int64
	certEvictions     atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// HandshakeCompleted records a successful TLS handshake.
func (c *Collector) HandshakeCompleted() {
	if c == nil {
		return
	}
	c.handshakesTotal.Add(1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Request metrics ──────────────────────────────────────────────────

// RequestSent records one request written to the wire.
func (c *Collector) RequestSent() {
	if c == nil {
		return
	}
	c.requestsTotal.Add(1)
}

// ResponseReceived records a response by status class.
func (c *Collector) ResponseReceived(status int) {
	if c == nil {
		return
	}
	switch {
	case status >= 200 && status < 300:
		c.responses2xx.Add(1)
	case status >= 400 && status < 500:
		c.responses4xx.Add(1)
	case status >= 500 && status < 600:
		c.responses5xx.Add(1)
	default:
		c.responsesOther.Add(1)
	}
}

// KeepAliveReused records a send on an already established connection.
func (c *Collector) KeepAliveReused() {
	if c == nil {
		return
	}
	c.keepAliveReuses.Add(1)
}

// TotalRequests returns the number of requests sent.
func (c *Collector) TotalRequests() int64 {
	if c == nil {
		return 0
	}
	return c.requestsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Certificate cache metrics ────────────────────────────────────────

// CertCacheHit records a certificate served from the cache.
func (c *Collector) CertCacheHit() {
	if c == nil {
		return
	}
	c.certHits.Add(1)
}

// CertCacheMiss records a certificate read from disk.
func (c *Collector) CertCacheMiss() {
	if c == nil {
		return
	}
	c.certMisses.Add(1)
}

// CertCacheReload records an entry dropped because its file changed.
func (c *Collector) CertCacheReload() {
	if c == nil {
		return
	}
	c.certReloads.Add(1)
}

// CertCacheEvicted records n entries evicted for inactivity.
func (c *Collector) CertCacheEvicted(n int) {
	if c == nil || n == 0 {
		return
	}
	c.certEvictions.Add(int64(n))
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	HandshakesTotal   int64  `json:"handshakes_total"`
	RequestsTotal     int64  `json:"requests_total"`
	KeepAliveReuses   int64  `json:"keepalive_reuses"`
	Responses2xx      int64  `json:"responses_2xx"`
	Responses4xx      int64  `json:"responses_4xx"`
	Responses5xx      int64  `json:"responses_5xx"`
	ResponsesOther    int64  `json:"responses_other"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	CertCacheHits     int64  `json:"cert_cache_hits"`
	CertCacheMisses   int64  `json:"cert_cache_misses"`
	CertCacheReloads  int64  `json:"cert_cache_reloads"`
	CertCacheEvicted  int64  `json:"cert_cache_evictions"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		HandshakesTotal:   c.handshakesTotal.Load(),
		RequestsTotal:     c.requestsTotal.Load(),
		KeepAliveReuses:   c.keepAliveReuses.Load(),
		Responses2xx:      c.responses2xx.Load(),
		Responses4xx:      c.responses4xx.Load(),
		Responses5xx:      c.responses5xx.Load(),
		ResponsesOther:    c.responsesOther.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		CertCacheHits:     c.certHits.Load(),
		CertCacheMisses:   c.certMisses.Load(),
		CertCacheReloads:  c.certReloads.Load(),
		CertCacheEvicted:  c.certEvictions.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
