// Package errors provides domain-specific error types for collectlink.
//
// These types carry structured context (kind, phase, endpoint, state)
// that lets the pipeline above the transport decide how to handle a
// failure, while Error() stays a human-readable detail string that can
// be logged as-is.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrNotConnected    = errors.New("not connected")
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTimeout         = errors.New("operation timed out")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrHostKeyMismatch = errors.New("host key mismatch")
	ErrShutdown        = errors.New("connection shut down")
	ErrClosed          = errors.New("connection closed")
)

// ── Kinds ────────────────────────────────────────────────────────────

// Kind is the machine-usable class of a transport failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindBadState: an operation was invoked outside its precondition
	// state.  The connection is left as-is.
	KindBadState
	KindConnectFailure
	KindHandshakeFailure
	KindSendFailure
	KindReceiveFailure
	// KindCertificate: the CA bundle could not be stat'ed, read or parsed.
	KindCertificate
)

func (k Kind) String() string {
	switch k {
	case KindBadState:
		return "bad state"
	case KindConnectFailure:
		return "connect failure"
	case KindHandshakeFailure:
		return "handshake failure"
	case KindSendFailure:
		return "send failure"
	case KindReceiveFailure:
		return "receive failure"
	case KindCertificate:
		return "certificate error"
	default:
		return "unknown"
	}
}

// ── Structured error types ───────────────────────────────────────────

// TransportError represents a failure of one connection operation.
type TransportError struct {
	Kind  Kind
	Op    string // phase: "connect", "handshake", "send", "receive"
	Addr  string // target endpoint
	State string // observed state, set for KindBadState
	Err   error  // underlying error
}

func (e *TransportError) Error() string {
	if e.Kind == KindBadState {
		return fmt.Sprintf("%s %s: bad state %s", e.Op, e.Addr, e.State)
	}
	if e.Kind == KindHandshakeFailure {
		return fmt.Sprintf("%s %s: handshake failed: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt, possibly on a different
// connection, may succeed.
func (e *TransportError) Retryable() bool {
	switch e.Kind {
	case KindConnectFailure, KindHandshakeFailure, KindSendFailure, KindReceiveFailure:
		return true
	}
	return false
}

// CertificateError reports a certificate-authority file that cannot be
// used.  Op is one of "stat", "open", "read", "parse".
type CertificateError struct {
	Path string
	Op   string
	Err  error
}

func (e *CertificateError) Error() string {
	switch e.Op {
	case "stat":
		return fmt.Sprintf("cannot stat certificate %s: %v", e.Path, e.Err)
	case "parse":
		return fmt.Sprintf("cannot parse certificate %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("cannot %s certificate file %s: %v", e.Op, e.Path, e.Err)
	}
}

func (e *CertificateError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a TransportError of the given kind.
func Wrap(kind Kind, op, addr string, err error) *TransportError {
	return &TransportError{Kind: kind, Op: op, Addr: addr, Err: err}
}

// BadState creates a KindBadState error naming the attempted operation
// and the state actually observed.
func BadState(op, addr, state string) *TransportError {
	return &TransportError{Kind: KindBadState, Op: op, Addr: addr, State: state}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// KindOf returns the Kind carried anywhere in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	var ce *CertificateError
	if errors.As(err, &ce) {
		return KindCertificate
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	var ce *CertificateError
	if errors.As(err, &ce) {
		return false
	}
	return classifyRetryable(err)
}

// IsTimeout reports whether err was caused by an I/O deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use collectlink/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
