package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the COLLECTLINK_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// duration syntax ("1500ms") or a bare number of seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("COLLECTLINK_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if envBool("COLLECTLINK_TLS") {
		cfg.TLS = true
	}
	if v := os.Getenv("COLLECTLINK_TLS_METHOD"); v != "" {
		cfg.TLSMethod = v
	}
	if v := os.Getenv("COLLECTLINK_CA_FILE"); v != "" {
		cfg.CAFile = v
	}
	if envBool("COLLECTLINK_INSECURE") {
		cfg.Insecure = true
	}
	if v := os.Getenv("COLLECTLINK_SERVER_NAME"); v != "" {
		cfg.ServerName = v
	}

	// Timeouts
	if d, ok := envDuration("COLLECTLINK_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = d
	}
	if d, ok := envDuration("COLLECTLINK_SEND_TIMEOUT"); ok {
		cfg.SendTimeout = d
	}
	if d, ok := envDuration("COLLECTLINK_RECEIVE_TIMEOUT"); ok {
		cfg.ReceiveTimeout = d
	}
	if d, ok := envDuration("COLLECTLINK_KEEPALIVE"); ok {
		cfg.KeepAlive = d
	}
	if d, ok := envDuration("COLLECTLINK_TCP_KEEPALIVE"); ok {
		cfg.TCPKeepAlive = d
	}
	if v := envInt("COLLECTLINK_ATTEMPTS"); v > 0 {
		cfg.MaxAttempts = v
	}

	// SSH tunnel
	if v := os.Getenv("COLLECTLINK_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("COLLECTLINK_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if v := os.Getenv("COLLECTLINK_SSH_PASSWORD"); v != "" {
		cfg.SSHPass = v
	}
	if envBool("COLLECTLINK_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("COLLECTLINK_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("COLLECTLINK_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := os.Getenv("COLLECTLINK_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := envInt("COLLECTLINK_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
