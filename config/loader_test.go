package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Collector(t *testing.T) {
	t.Setenv("COLLECTLINK_ENDPOINT", "https://collector/ingest")
	t.Setenv("COLLECTLINK_TLS_METHOD", "tls1.3")
	t.Setenv("COLLECTLINK_CA_FILE", "/etc/collectlink/ca.pem")
	t.Setenv("COLLECTLINK_SERVER_NAME", "collector.internal")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.Endpoint != "https://collector/ingest" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.TLSMethod != "tls1.3" {
		t.Errorf("TLSMethod = %q", cfg.TLSMethod)
	}
	if cfg.CAFile != "/etc/collectlink/ca.pem" {
		t.Errorf("CAFile = %q", cfg.CAFile)
	}
	if cfg.ServerName != "collector.internal" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key    string
		values []string
		get    func(*Config) bool
	}{
		{"COLLECTLINK_TLS", []string{"1", "true", "yes", "TRUE", "Yes"}, func(c *Config) bool { return c.TLS }},
		{"COLLECTLINK_INSECURE", []string{"1", "true"}, func(c *Config) bool { return c.Insecure }},
		{"COLLECTLINK_SSH_AGENT", []string{"true"}, func(c *Config) bool { return c.UseSSHAgent }},
		{"COLLECTLINK_STRICT_HOSTKEY", []string{"yes"}, func(c *Config) bool { return c.StrictHostKey }},
	}

	for _, tt := range tests {
		for _, v := range tt.values {
			t.Run(tt.key+"="+v, func(t *testing.T) {
				t.Setenv(tt.key, v)
				cfg := New()
				LoadFromEnv(cfg)
				if !tt.get(cfg) {
					t.Errorf("%s=%s not applied", tt.key, v)
				}
			})
		}
	}
}

func TestLoadFromEnv_Durations(t *testing.T) {
	tests := []struct {
		key   string
		value string
		get   func(*Config) time.Duration
		want  time.Duration
	}{
		{"COLLECTLINK_CONNECT_TIMEOUT", "5", func(c *Config) time.Duration { return c.ConnectTimeout }, 5 * time.Second},
		{"COLLECTLINK_SEND_TIMEOUT", "1500ms", func(c *Config) time.Duration { return c.SendTimeout }, 1500 * time.Millisecond},
		{"COLLECTLINK_RECEIVE_TIMEOUT", "2m", func(c *Config) time.Duration { return c.ReceiveTimeout }, 2 * time.Minute},
		{"COLLECTLINK_KEEPALIVE", "0", func(c *Config) time.Duration { return c.KeepAlive }, 0},
		{"COLLECTLINK_TCP_KEEPALIVE", "15s", func(c *Config) time.Duration { return c.TCPKeepAlive }, 15 * time.Second},
		// Invalid values keep the default.
		{"COLLECTLINK_CONNECT_TIMEOUT", "soon", func(c *Config) time.Duration { return c.ConnectTimeout }, DefaultConnectTimeout},
		{"COLLECTLINK_SEND_TIMEOUT", "-3s", func(c *Config) time.Duration { return c.SendTimeout }, DefaultSendTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := New()
			LoadFromEnv(cfg)
			if got := tt.get(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_SSHFields(t *testing.T) {
	t.Setenv("COLLECTLINK_TUNNEL", "admin@bastion:2222")
	t.Setenv("COLLECTLINK_SSH_KEY", "/home/user/.ssh/id_ed25519")
	t.Setenv("COLLECTLINK_SSH_PASSWORD", "hunter2")
	t.Setenv("COLLECTLINK_KNOWN_HOSTS", "/custom/known_hosts")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.TunnelSpec != "admin@bastion:2222" {
		t.Errorf("TunnelSpec = %q", cfg.TunnelSpec)
	}
	if cfg.SSHKeyPath != "/home/user/.ssh/id_ed25519" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if cfg.SSHPass != "hunter2" || cfg.SSHPassword {
		t.Errorf("SSHPass = %q, SSHPassword = %v", cfg.SSHPass, cfg.SSHPassword)
	}
	if cfg.KnownHostsPath != "/custom/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
}

func TestLoadFromEnv_NoOverrideWhenEmpty(t *testing.T) {
	t.Setenv("COLLECTLINK_ENDPOINT", "")
	t.Setenv("COLLECTLINK_ATTEMPTS", "")

	cfg := New()
	cfg.Endpoint = "original:80"
	LoadFromEnv(cfg)

	if cfg.Endpoint != "original:80" {
		t.Errorf("Endpoint was overridden: %q", cfg.Endpoint)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts was overridden: %d", cfg.MaxAttempts)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("COLLECTLINK_ATTEMPTS", "not-a-number")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts should keep default for invalid input, got %d", cfg.MaxAttempts)
	}
}

func TestLoadFromEnv_Output(t *testing.T) {
	t.Setenv("COLLECTLINK_VERBOSE", "3")
	t.Setenv("COLLECTLINK_METRICS_ADDR", "127.0.0.1:9464")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
}
