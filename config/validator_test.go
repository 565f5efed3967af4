package config

import (
	"strings"
	"testing"
	"time"

	ncerr "collectlink/internal/errors"
)

func validConfig() *Config {
	cfg := New()
	cfg.Host = "collector"
	cfg.Port = 8080
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.TLS = true
	cfg.CAFile = "/etc/ssl/ca.pem"
	cfg.TLSMethod = "tls1.3"
	cfg.ReceiveTimeout = 5 * time.Second
	cfg.Headers = []string{"X-Agent: 1"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages naming the flag, with hints where one helps.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantSub   string // substring expected in error
	}{
		{"no endpoint", func(c *Config) { c.Host = "" }, "endpoint", "hint:"},
		{"unknown tls method", func(c *Config) { c.TLSMethod = "ssl3" }, "tls-method", "hint:"},
		{"ca without tls", func(c *Config) { c.CAFile = "ca.pem" }, "tls", "add --tls"},
		{"insecure without tls", func(c *Config) { c.Insecure = true }, "tls", "only apply to TLS"},
		{"negative timeout", func(c *Config) { c.SendTimeout = -time.Second }, "send-timeout", "must not be negative"},
		{"sub-second receive timeout", func(c *Config) { c.ReceiveTimeout = 500 * time.Millisecond }, "receive-timeout", "hint:"},
		{"zero count", func(c *Config) { c.Count = 0 }, "count", "at least 1"},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, "attempts", "at least 1"},
		{"bad header", func(c *Config) { c.Headers = []string{"nocolon"} }, "header", "expected"},
		{"tunnel without host", func(c *Config) { c.TunnelEnabled = true }, "tunnel", "hint:"},
		{"prompt and env password", func(c *Config) { c.SSHPassword = true; c.SSHPass = "x" }, "ssh-password", "COLLECTLINK_SSH_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ncerr.ConfigError
			if !ncerr.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}
