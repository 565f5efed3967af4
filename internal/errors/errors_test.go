package errors

import (
	"fmt"
	"io"
	"io/fs"
	"net"
	"testing"
)

func TestTransportError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  TransportError
		want string
	}{
		{
			name: "connect",
			err:  TransportError{Kind: KindConnectFailure, Op: "connect", Addr: "10.0.0.1:80", Err: fmt.Errorf("connection refused")},
			want: "connect 10.0.0.1:80: connection refused",
		},
		{
			name: "handshake",
			err:  TransportError{Kind: KindHandshakeFailure, Op: "handshake", Addr: "10.0.0.1:443", Err: io.EOF},
			want: "handshake 10.0.0.1:443: handshake failed: EOF",
		},
		{
			name: "bad state",
			err:  TransportError{Kind: KindBadState, Op: "send", Addr: "collector:80", State: "send"},
			want: "send collector:80: bad state send",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := Wrap(KindReceiveFailure, "receive", "x", io.EOF)
	if !Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestCertificateError_Format(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{"stat", "cannot stat certificate /etc/ca.pem: file does not exist"},
		{"open", "cannot open certificate file /etc/ca.pem: file does not exist"},
		{"read", "cannot read certificate file /etc/ca.pem: file does not exist"},
		{"parse", "cannot parse certificate /etc/ca.pem: file does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			err := &CertificateError{Path: "/etc/ca.pem", Op: tt.op, Err: fs.ErrNotExist}
			if got := err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !Is(err, fs.ErrNotExist) {
				t.Error("should unwrap to fs.ErrNotExist")
			}
		})
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "tls-method",
				Value:   "ssl3",
				Message: "unknown TLS method",
				Hint:    "use tls, tls1.2 or tls1.3",
			},
			want: "config: --tls-method=ssl3: unknown TLS method\n  hint: use tls, tls1.2 or tls1.3",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "endpoint",
				Message: "required",
			},
			want: "config: --endpoint: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"bad state", BadState("connect", "x", "idle"), KindBadState},
		{"wrapped send", fmt.Errorf("pipeline: %w", Wrap(KindSendFailure, "send", "x", io.EOF)), KindSendFailure},
		{"certificate", &CertificateError{Path: "p", Op: "open", Err: fs.ErrNotExist}, KindCertificate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
	if !IsKind(BadState("send", "x", "idle"), KindBadState) {
		t.Error("IsKind should match")
	}
	if IsKind(nil, KindUnknown) {
		t.Error("IsKind(nil) should be false")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connect", Wrap(KindConnectFailure, "connect", "x", io.EOF), true},
		{"handshake", Wrap(KindHandshakeFailure, "handshake", "x", io.EOF), true},
		{"receive", Wrap(KindReceiveFailure, "receive", "x", io.EOF), true},
		{"bad state", BadState("send", "x", "send"), false},
		{"certificate", &CertificateError{Path: "p", Op: "read", Err: io.EOF}, false},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(ErrTimeout) {
		t.Error("ErrTimeout should be a timeout")
	}
	opErr := &net.OpError{Op: "read", Net: "tcp", Err: &net.DNSError{IsTimeout: true}}
	if !IsTimeout(Wrap(KindReceiveFailure, "receive", "x", opErr)) {
		t.Error("wrapped net timeout should be a timeout")
	}
	if IsTimeout(io.EOF) {
		t.Error("EOF is not a timeout")
	}
}

func TestClassifyRetryable_NetOpError(t *testing.T) {
	opErr := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &net.DNSError{IsTemporary: true},
	}
	if !classifyRetryable(opErr) {
		t.Error("temporary OpError should be retryable")
	}
}

func TestKind_String(t *testing.T) {
	seen := map[string]bool{}
	for k := KindUnknown; k <= KindCertificate; k++ {
		s := k.String()
		if seen[s] {
			t.Errorf("duplicate kind name %q", s)
		}
		seen[s] = true
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrTunnelClosed, ErrNotConnected, ErrCircuitOpen,
		ErrTimeout, ErrAuthFailed, ErrHostKeyMismatch,
		ErrShutdown, ErrClosed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
