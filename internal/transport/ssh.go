package transport

import (
	"context"
	"fmt"
	"net"

	"collectlink/tunnel"
	"collectlink/util"
)

// SSHDialer reaches the collector through an SSH bastion.  The tunnel
// is connected on the first Dial, re-established when it is found dead
// and shared by every connection built from the same dialer.
type SSHDialer struct {
	manager *tunnel.Manager
	logger  *util.Logger
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return NewTunnelDialer(tunnel.NewManager(tunnel.NewSSHTunnel(cfg, logger), cfg.KeepAlive, logger), logger)
}

// NewTunnelDialer dials through an already configured tunnel manager.
func NewTunnelDialer(m *tunnel.Manager, logger *util.Logger) *SSHDialer {
	return &SSHDialer{manager: m, logger: logger}
}

// Dial connects to address through the tunnel.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.manager.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("tunnel: %w", err)
	}
	return d.manager.Tunnel().Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	return d.manager.Stop()
}
