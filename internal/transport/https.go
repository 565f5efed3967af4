package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"

	"collectlink/internal/certcache"
	ncerr "collectlink/internal/errors"
)

// TLSMethod selects the protocol versions a TLS connection may
// negotiate.
type TLSMethod struct {
	Min, Max uint16 // zero leaves the crypto/tls default
}

var tlsVersions = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// ParseTLSMethod accepts "tls" (library defaults), "tlsX.Y" (exactly
// that version) and "tlsX.Y+" (that version or newer).
func ParseTLSMethod(s string) (TLSMethod, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "tls" {
		return TLSMethod{}, nil
	}
	if !strings.HasPrefix(v, "tls") {
		return TLSMethod{}, fmt.Errorf("unknown TLS method %q", s)
	}
	v = strings.TrimPrefix(strings.TrimPrefix(v, "tls"), "v")
	orNewer := strings.HasSuffix(v, "+")
	v = strings.TrimSuffix(v, "+")

	ver, ok := tlsVersions[v]
	if !ok {
		return TLSMethod{}, fmt.Errorf("unknown TLS method %q", s)
	}
	if orNewer {
		return TLSMethod{Min: ver}, nil
	}
	return TLSMethod{Min: ver, Max: ver}, nil
}

func (m TLSMethod) String() string {
	name := func(v uint16) string {
		for k, ver := range tlsVersions {
			if ver == v {
				return "tls" + k
			}
		}
		return "tls"
	}
	switch {
	case m.Min == 0 && m.Max == 0:
		return "tls"
	case m.Max == 0:
		return name(m.Min) + "+"
	default:
		return name(m.Min)
	}
}

// TLSConnection is a Connection over TLS.
//
// Its Shutdown is asynchronous: the close_notify alert and the socket
// close run on their own goroutine, the state reads ShuttingDown until
// they finish and NotConnected afterwards.  The object can then be
// connected again; the TLS configuration and its session cache are kept.
type TLSConnection struct {
	base
	config *tls.Config
}

// NewTLSConnection builds the TLS context of a connection.  When
// cfg.CertPath is set the bundle is taken from opts.CertCache and
// trusted instead of the system roots.  A certificate that cannot be
// loaded fails construction with a *errors.CertificateError.
func NewTLSConnection(cfg ConnectionConfig, opts Options) (*TLSConnection, error) {
	tc := &tls.Config{
		ServerName:         cfg.serverName(),
		MinVersion:         cfg.TLSMethod.Min,
		MaxVersion:         cfg.TLSMethod.Max,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
		ClientSessionCache: opts.SessionCache,
	}
	if cfg.CertPath != "" {
		cache := opts.CertCache
		if cache == nil {
			cache = certcache.New(certcache.WithLogger(opts.Logger), certcache.WithMetrics(opts.Metrics))
		}
		pem, err := cache.Get(cfg.CertPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &ncerr.CertificateError{
				Path: cfg.CertPath,
				Op:   "parse",
				Err:  ncerr.New("no PEM certificate found"),
			}
		}
		tc.RootCAs = pool
	}

	c := &TLSConnection{config: tc}
	c.init(cfg, opts, c.close)
	c.logger.Debug("tls connection created, method %s, server name %s", cfg.TLSMethod, tc.ServerName)
	return c, nil
}

// Connect dials the collector and performs the TLS handshake.  The
// connect timeout bounds both and a Shutdown aborts them.
func (c *TLSConnection) Connect(ctx context.Context) error {
	cctx, cancel := c.connectContext(ctx)
	defer cancel()
	gen, ok := c.beginConnect(cancel)
	if !ok {
		return c.badState("connect")
	}
	defer c.endConnect(gen)

	nc, err := c.dial(cctx)
	if err != nil {
		if !c.abandon(gen) {
			return c.aborted(ncerr.KindConnectFailure, "connect")
		}
		e := ncerr.Wrap(ncerr.KindConnectFailure, "connect", c.addr, err)
		c.metrics.RecordError(e.Error())
		c.logger.Error("connect failed: %v", err)
		return e
	}

	tconn := tls.Client(nc, c.config)
	if !c.install(gen, tconn, Connecting, Handshaking) {
		_ = nc.Close()
		return c.aborted(ncerr.KindConnectFailure, "connect")
	}

	c.logger.Debug("handshake")
	if err := tconn.HandshakeContext(cctx); err != nil {
		if c.superseded(gen) {
			return c.aborted(ncerr.KindHandshakeFailure, "handshake")
		}
		return c.fail(cctx, tconn, ncerr.KindHandshakeFailure, "handshake", err)
	}
	c.metrics.HandshakeCompleted()

	// A Shutdown that superseded the connect has detached and closed
	// tconn already.
	if !c.advance(gen, Handshaking, Idle) {
		return c.aborted(ncerr.KindHandshakeFailure, "handshake")
	}
	st := tconn.ConnectionState()
	c.logger.Verbose("connected to %s, %s, resumed=%t", c.PeerAddr(), tls.VersionName(st.Version), st.DidResume)
	return nil
}

// Send writes req and reads the response over the encrypted stream.
func (c *TLSConnection) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.send(ctx, req)
}

// Shutdown starts an asynchronous close and returns immediately.  A call
// made while a shutdown is pending does nothing.
func (c *TLSConnection) Shutdown() { c.close(nil) }

func (c *TLSConnection) close(owned func() bool) {
	done := make(chan struct{})
	nc, ok := c.retire(owned, done)
	if !ok {
		return
	}

	go func() {
		defer close(done)
		if nc != nil {
			c.logger.Verbose("shutdown")
			// Sends close_notify when the handshake completed, then
			// closes the socket whatever the alert's outcome.
			if err := nc.Close(); err != nil {
				c.logger.Debug("tls shutdown: %v", err)
			}
		}
		c.state.store(NotConnected)
	}()
}

// Wait blocks until the pending shutdown, if any, has completed.
func (c *TLSConnection) Wait() {
	c.mu.Lock()
	done := c.closing
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
