package core

import (
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"time"

	"collectlink/config"
	"collectlink/internal/certcache"
	ncerr "collectlink/internal/errors"
	"collectlink/internal/metrics"
	"collectlink/internal/retry"
	"collectlink/internal/transport"
	"collectlink/tunnel"
	"collectlink/util"
)

// sessionCacheSize bounds the TLS sessions kept for resumption.
const sessionCacheSize = 64

// Build constructs the push mode from the given configuration.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (*PushMode, error) {
	b, err := NewBuilder(cfg, logger, m)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(cfg.Headers))
	for _, h := range cfg.Headers {
		name, value, err := config.ParseHeader(h)
		if err != nil {
			return nil, err
		}
		headers[name] = value
	}

	return &PushMode{
		Sender:   NewSender(b.NewConnection, senderOptions(cfg, logger, m)),
		Closer:   b,
		Method:   cfg.Method,
		Target:   cfg.Target,
		Headers:  headers,
		Body:     cfg.Body,
		Count:    cfg.Count,
		Interval: cfg.Interval,
		Logger:   logger,
	}, nil
}

// Builder creates connections to one collector.  Every connection it
// creates shares its dialer, certificate cache and TLS session cache.
type Builder struct {
	conn transport.ConnectionConfig
	tls  bool
	opts transport.Options
}

// NewBuilder maps cfg onto a transport.ConnectionConfig and the shared
// collaborators.
func NewBuilder(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (*Builder, error) {
	method, err := transport.ParseTLSMethod(cfg.TLSMethod)
	if err != nil {
		return nil, &ncerr.ConfigError{Field: "tls-method", Value: cfg.TLSMethod, Message: err.Error()}
	}

	b := &Builder{
		conn: transport.ConnectionConfig{
			Address:            cfg.Address(),
			ServerName:         cfg.ServerName,
			ConnectTimeout:     cfg.ConnectTimeout,
			SendTimeout:        cfg.SendTimeout,
			ReceiveTimeout:     cfg.ReceiveTimeout,
			DefaultKeepAlive:   cfg.KeepAlive,
			TCPKeepAlive:       cfg.TCPKeepAlive,
			TLSMethod:          method,
			CertPath:           cfg.CAFile,
			InsecureSkipVerify: cfg.Insecure,
		},
		tls: cfg.TLS,
		opts: transport.Options{
			Dialer:  buildDialer(cfg, logger),
			Logger:  logger,
			Metrics: m,
		},
	}
	if cfg.TLS {
		b.opts.CertCache = certcache.New(certcache.WithLogger(logger), certcache.WithMetrics(m))
		b.opts.SessionCache = tls.NewLRUClientSessionCache(sessionCacheSize)
	}
	return b, nil
}

// ConnectionConfig returns the per-connection configuration.
func (b *Builder) ConnectionConfig() transport.ConnectionConfig { return b.conn }

// NewConnection returns a fresh, unconnected connection.
func (b *Builder) NewConnection() (transport.Connection, error) {
	if !b.tls {
		return transport.NewPlainConnection(b.conn, b.opts), nil
	}
	c, err := transport.NewTLSConnection(b.conn, b.opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the dialer, tearing down an SSH tunnel if one is up.
func (b *Builder) Close() error {
	return b.opts.Dialer.Close()
}

var _ io.Closer = (*Builder)(nil)

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			Password:      cfg.SSHPass,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.ConnectTimeout,
			KeepAlive:     cfg.SSHKeepAlive,
		}, logger)
	}

	return &transport.TCPDialer{
		Timeout:   cfg.ConnectTimeout,
		LocalAddr: cfg.LocalAddr,
	}
}

// senderOptions derives the retry policy from cfg.
func senderOptions(cfg *config.Config, logger *util.Logger, m *metrics.Collector) SenderOptions {
	bo := retry.DefaultBackoff()
	bo.MaxAttempts = cfg.MaxAttempts
	bo.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("attempt %d/%d failed: %v, retrying in %v", attempt, cfg.MaxAttempts, err, wait.Truncate(time.Millisecond))
	}
	return SenderOptions{
		Backoff: bo,
		Breaker: retry.NewCircuitBreaker(&retry.CircuitBreakerConfig{
			IsFailure: ncerr.IsRetryable,
			OnStateChange: func(from, to retry.State) {
				logger.Verbose("circuit %s → %s", from, to)
			},
		}),
		Logger:  logger,
		Metrics: m,
	}
}

// readBody resolves a -d argument: "@path" reads a file, "-" reads
// stdin, anything else is the literal body.
func readBody(arg string, stdin io.Reader) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(stdin)
	case len(arg) > 1 && arg[0] == '@':
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	default:
		return []byte(arg), nil
	}
}

// ReadBody is readBody over os.Stdin.
func ReadBody(arg string) ([]byte, error) { return readBody(arg, os.Stdin) }
