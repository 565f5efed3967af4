package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "collectlink/internal/errors"
	"collectlink/util"
)

// SSHConfig holds everything needed to reach a collector through an SSH
// bastion.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used as-is when set, skips the prompt
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// KeepAlive is the interval of keepalive@openssh.com probes sent by
	// the Manager.  Zero disables them.
	KeepAlive time.Duration
}

// Addr returns the bastion address.
func (c *SSHConfig) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// SSHTunnel implements [Tunnel] by opening an SSH connection and
// forwarding collector connections with direct-tcpip channels.
type SSHTunnel struct {
	config *SSHConfig
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, logger: logger.With("ssh " + cfg.Addr())}
}

// Connect dials the bastion and completes the SSH handshake.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(t.config)
	if err != nil {
		return ncerr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	addr := t.config.Addr()
	t.logger.Debug("dialing as %s", t.config.User)

	dctx, cancel := context.WithTimeout(ctx, t.config.ConnTimeout)
	defer cancel()
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(dctx, "tcp", addr)
	if err != nil {
		return ncerr.WrapSSH("dial", t.config.Host, t.config.Port, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return ncerr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	go t.monitor(client)

	t.logger.Verbose("tunnel established, server %s", sshConn.ServerVersion())
	return nil
}

// Dial opens a direct-tcpip channel to address through the bastion.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client := t.client
	alive := t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, ncerr.ErrTunnelClosed
	}

	t.logger.Debug("forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Ping sends one keepalive request and waits for the reply.
func (t *SSHTunnel) Ping() error {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return ncerr.ErrTunnelClosed
	}
	_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
	return err
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until client closes and flips the alive flag, unless a
// newer client replaced it in the meantime.
func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.alive = false
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("tunnel closed: %v", err)
	} else {
		t.logger.Debug("tunnel closed")
	}
}
