package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnectTimeout bounds dial plus TLS handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultSendTimeout bounds writing one request.
	DefaultSendTimeout = 10 * time.Second

	// DefaultReceiveTimeout is disabled: a response read is bounded
	// only by shutdown.
	DefaultReceiveTimeout time.Duration = 0

	// DefaultKeepAlive is the idle lifetime assumed when the collector
	// does not announce a Keep-Alive timeout.
	DefaultKeepAlive = 60 * time.Second

	// DefaultTCPKeepAlive is the TCP probe idle time and interval.
	DefaultTCPKeepAlive = 30 * time.Second

	// DefaultTLSMethod accepts TLS 1.2 and later.
	DefaultTLSMethod = "tls1.2+"

	// DefaultMethod is the request method for collector pushes.
	DefaultMethod = "POST"

	// DefaultMaxAttempts is the number of tries per request, including
	// the first.
	DefaultMaxAttempts = 3

	// DefaultSSHKeepAlive is the bastion keepalive interval.
	DefaultSSHKeepAlive = 30 * time.Second
)
