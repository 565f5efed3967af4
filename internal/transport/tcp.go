package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPDialer establishes plain TCP connections, optionally from a fixed
// local address.
type TCPDialer struct {
	Timeout   time.Duration
	LocalAddr string // optional source host:port ("" = any)
}

// Dial connects to address over TCP.  The standard library's own
// keep-alive default is disabled; connections configure probes
// themselves from ConnectionConfig.TCPKeepAlive.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: -1}

	if d.LocalAddr != "" {
		a, err := net.ResolveTCPAddr(network, d.LocalAddr)
		if err != nil {
			return nil, fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}

	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
