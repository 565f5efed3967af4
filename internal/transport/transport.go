// Package transport implements one client connection to an HTTP(S)
// collector: a plaintext and a TLS flavour sharing the same state
// machine.
//
// A connection runs at most one operation at a time.  Connect and Send
// are admitted by an atomic compare-and-swap on the connection state; a
// call made in the wrong state fails immediately with a BadState error
// and never waits.  Shutdown is the only cancellation primitive and may
// be called from any goroutine at any time.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"collectlink/internal/certcache"
	"collectlink/internal/metrics"
	"collectlink/util"
)

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and an SSH-tunnelled dialer that reaches the
// collector through a bastion.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// Connection is the contract shared by [PlainConnection] and
// [TLSConnection].
type Connection interface {
	// Connect requires NotConnected and leaves the connection Idle.
	Connect(ctx context.Context) error
	// Send requires Idle.  It writes req, reads the full response and
	// decides from its headers whether the connection stays Idle.
	Send(ctx context.Context, req *Request) (*Response, error)
	// Shutdown is idempotent and safe from any state.
	Shutdown()

	State() State
	// KeepAliveDeadline is only meaningful while the state is Idle.
	KeepAliveDeadline() time.Time
	PeerAddr() string
	Address() string
}

// ConnectionConfig is the immutable per-connection target and policy.
type ConnectionConfig struct {
	Address string // host:port of the collector
	// ServerName is used for SNI, certificate verification and the
	// default Host header.  Empty means the host part of Address.
	ServerName string

	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	// ReceiveTimeout bounds the response read.  Values below one second
	// disable it.
	ReceiveTimeout time.Duration

	// DefaultKeepAlive applies when a response carries no usable
	// Keep-Alive timeout.
	DefaultKeepAlive time.Duration
	// TCPKeepAlive is both the idle time before the first probe and the
	// probe interval.  Zero leaves the system defaults.
	TCPKeepAlive time.Duration

	TLSMethod          TLSMethod
	CertPath           string // CA bundle; empty means system roots
	InsecureSkipVerify bool
}

func (c *ConnectionConfig) serverName() string {
	if c.ServerName != "" {
		return c.ServerName
	}
	host, _, err := net.SplitHostPort(c.Address)
	if err != nil {
		return c.Address
	}
	return host
}

// Options carries the collaborators of a connection.  Every field is
// optional.
type Options struct {
	Dialer  Dialer // defaults to a TCPDialer using ConnectTimeout
	Logger  *util.Logger
	Metrics *metrics.Collector

	// CertCache backs the CA bundle of TLS connections.  Connections of
	// one process should share a single cache.
	CertCache *certcache.Cache
	// SessionCache enables TLS session resumption across reconnects.
	SessionCache tls.ClientSessionCache
}

var connSeq atomic.Uint64

// nextID numbers connections for log prefixes.
func nextID() uint64 { return connSeq.Add(1) }
