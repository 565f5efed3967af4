package util

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint is a parsed collector address.
type Endpoint struct {
	Host   string
	Port   int
	TLS    bool
	Target string // request target, "/" when none was given
}

// Addr returns "host:port".
func (e Endpoint) Addr() string { return FormatAddr(e.Host, e.Port) }

// ParseEndpoint accepts "host:port", "http://host[:port][/path]" or
// "https://host[:port][/path]".  Scheme-less endpoints are plaintext and
// require a port; URL forms default to 80 / 443.
func ParseEndpoint(raw string) (Endpoint, error) {
	if raw == "" {
		return Endpoint{}, fmt.Errorf("empty endpoint")
	}

	if !strings.Contains(raw, "://") {
		host, portStr, err := net.SplitHostPort(raw)
		if err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q: %w", raw, err)
		}
		port, err := parsePort(portStr)
		if err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q: %w", raw, err)
		}
		if host == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q: host is required", raw)
		}
		return Endpoint{Host: host, Port: port, Target: "/"}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("endpoint %q: %w", raw, err)
	}

	ep := Endpoint{Host: u.Hostname(), Target: u.RequestURI()}
	switch strings.ToLower(u.Scheme) {
	case "http":
		ep.Port = 80
	case "https":
		ep.Port = 443
		ep.TLS = true
	default:
		return Endpoint{}, fmt.Errorf("endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	if ep.Host == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q: host is required", raw)
	}
	if p := u.Port(); p != "" {
		if ep.Port, err = parsePort(p); err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q: %w", raw, err)
		}
	}
	if ep.Target == "" {
		ep.Target = "/"
	}
	return ep, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
