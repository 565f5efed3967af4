// Package config defines the runtime configuration for collectlink and
// provides helpers for parsing endpoints, tunnel specifications and
// request headers.
package config

import (
	"fmt"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"

	ncerr "collectlink/internal/errors"
	"collectlink/internal/transport"
	"collectlink/util"
)

// Config holds every tuneable for one collectlink run.
type Config struct {
	// ── Collector ────────────────────────────────────────────────────
	Endpoint   string // raw positional argument
	Host       string
	Port       int
	TLS        bool
	ServerName string // SNI / Host header override
	TLSMethod  string
	CAFile     string
	Insecure   bool
	LocalAddr  string // optional source host:port

	// ── Timeouts ─────────────────────────────────────────────────────
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
	KeepAlive      time.Duration // default HTTP keep-alive
	TCPKeepAlive   time.Duration

	// ── Request ──────────────────────────────────────────────────────
	Method      string
	Target      string
	Headers     []string // raw "Name: value" pairs
	Body        []byte
	Count       int
	Interval    time.Duration
	MaxAttempts int

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	SSHPass        string
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string
	SSHKeepAlive   time.Duration

	// ── Output ───────────────────────────────────────────────────────
	MetricsAddr string
	Verbose     int
}

// New returns a Config populated with the defaults from defaults.go.
func New() *Config {
	return &Config{
		TLSMethod:      DefaultTLSMethod,
		ConnectTimeout: DefaultConnectTimeout,
		SendTimeout:    DefaultSendTimeout,
		ReceiveTimeout: DefaultReceiveTimeout,
		KeepAlive:      DefaultKeepAlive,
		TCPKeepAlive:   DefaultTCPKeepAlive,
		Method:         DefaultMethod,
		Count:          1,
		MaxAttempts:    DefaultMaxAttempts,
		SSHKeepAlive:   DefaultSSHKeepAlive,
	}
}

// ApplyEndpoint parses raw and fills Host, Port and TLS.  An explicit
// request target in a URL endpoint only applies when Target is unset.
func (c *Config) ApplyEndpoint(raw string) error {
	ep, err := util.ParseEndpoint(raw)
	if err != nil {
		return &ncerr.ConfigError{
			Field:   "endpoint",
			Value:   raw,
			Message: err.Error(),
			Hint:    "use host:port, http://host[:port]/path or https://host[:port]/path",
		}
	}
	c.Endpoint = raw
	c.Host = ep.Host
	c.Port = ep.Port
	c.TLS = c.TLS || ep.TLS
	if c.Target == "" {
		c.Target = ep.Target
	}
	return nil
}

// Address returns the collector "host:port".
func (c *Config) Address() string { return util.FormatAddr(c.Host, c.Port) }

// ── Header parser ────────────────────────────────────────────────────

// ParseHeader splits a "Name: value" pair and canonicalises the name.
func ParseHeader(raw string) (name, value string, err error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("invalid header %q – expected \"Name: value\"", raw)
	}
	return textproto.CanonicalMIMEHeaderKey(name), strings.TrimSpace(value), nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec, when set, into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" || c.Port == 0 {
		return &ncerr.ConfigError{
			Field:   "endpoint",
			Message: "collector endpoint is required",
			Hint:    "collectlink [options] <host:port | http(s)://host[:port]/path>",
		}
	}

	if _, err := transport.ParseTLSMethod(c.TLSMethod); err != nil {
		return &ncerr.ConfigError{
			Field:   "tls-method",
			Value:   c.TLSMethod,
			Message: err.Error(),
			Hint:    "one of tls, tls1.0, tls1.1, tls1.2, tls1.3, optionally suffixed with + for a minimum",
		}
	}
	if !c.TLS && (c.CAFile != "" || c.Insecure) {
		return &ncerr.ConfigError{
			Field:   "tls",
			Message: "--ca-file and --insecure only apply to TLS endpoints",
			Hint:    "add --tls or use an https:// endpoint",
		}
	}

	for _, d := range []struct {
		field string
		v     time.Duration
	}{
		{"connect-timeout", c.ConnectTimeout},
		{"send-timeout", c.SendTimeout},
		{"receive-timeout", c.ReceiveTimeout},
		{"keepalive", c.KeepAlive},
		{"tcp-keepalive", c.TCPKeepAlive},
		{"interval", c.Interval},
	} {
		if d.v < 0 {
			return &ncerr.ConfigError{Field: d.field, Value: d.v, Message: "must not be negative"}
		}
	}
	if c.ReceiveTimeout > 0 && c.ReceiveTimeout < time.Second {
		return &ncerr.ConfigError{
			Field:   "receive-timeout",
			Value:   c.ReceiveTimeout,
			Message: "values below one second disable the receive timeout",
			Hint:    "use 0 to disable it explicitly",
		}
	}

	if c.Count < 1 {
		return &ncerr.ConfigError{Field: "count", Value: c.Count, Message: "must be at least 1"}
	}
	if c.MaxAttempts < 1 {
		return &ncerr.ConfigError{Field: "attempts", Value: c.MaxAttempts, Message: "must be at least 1"}
	}

	for _, h := range c.Headers {
		if _, _, err := ParseHeader(h); err != nil {
			return &ncerr.ConfigError{Field: "header", Value: h, Message: err.Error()}
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ConfigError{
			Field:   "tunnel",
			Message: "tunnel host is required",
			Hint:    "use -T user@bastion[:port]",
		}
	}
	if c.SSHPassword && c.SSHPass != "" {
		return &ncerr.ConfigError{
			Field:   "ssh-password",
			Message: "prompt requested while COLLECTLINK_SSH_PASSWORD is set",
		}
	}

	return nil
}
