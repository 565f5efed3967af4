// Package cmd wires up the CLI flags and dispatches to the core.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"collectlink/config"
	"collectlink/internal/core"
	"collectlink/internal/metrics"
	"collectlink/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X collectlink/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and pushes to the collector.
func Execute(ctx context.Context, args []string) error {
	cfg := config.New()
	config.LoadFromEnv(cfg)
	fs := flag.NewFlagSet("collectlink", flag.ContinueOnError)

	// ── collector ────────────────────────────────────────────────
	fs.BoolVar(&cfg.TLS, "tls", cfg.TLS, "Use TLS (implied by https:// endpoints)")
	fs.StringVar(&cfg.TLSMethod, "tls-method", cfg.TLSMethod, "TLS versions: tls, tls1.2, tls1.2+, ...")
	fs.StringVar(&cfg.CAFile, "ca-file", cfg.CAFile, "CA bundle to trust instead of the system roots")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip certificate verification")
	fs.StringVar(&cfg.ServerName, "server-name", cfg.ServerName, "SNI name and default Host header")
	fs.StringVar(&cfg.LocalAddr, "local-addr", cfg.LocalAddr, "Source address host:port")

	// ── timeouts ─────────────────────────────────────────────────
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "Dial and handshake timeout")
	fs.DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "Request write timeout")
	fs.DurationVar(&cfg.ReceiveTimeout, "receive-timeout", cfg.ReceiveTimeout, "Response read timeout (0 disables)")
	fs.DurationVar(&cfg.KeepAlive, "keepalive", cfg.KeepAlive, "Keep-alive when the collector announces none")
	fs.DurationVar(&cfg.TCPKeepAlive, "tcp-keepalive", cfg.TCPKeepAlive, "TCP keep-alive idle time and interval")

	// ── request ──────────────────────────────────────────────────
	fs.StringVarP(&cfg.Method, "request", "X", cfg.Method, "Request method")
	fs.StringVar(&cfg.Target, "target", "", "Request target (overrides the endpoint path)")
	var body string
	fs.StringVarP(&body, "data", "d", "", "Request body, @file or - for stdin")
	fs.StringArrayVarP(&cfg.Headers, "header", "H", nil, "Request header \"Name: value\" (repeatable)")
	fs.IntVarP(&cfg.Count, "count", "n", cfg.Count, "Number of requests")
	fs.DurationVarP(&cfg.Interval, "interval", "i", cfg.Interval, "Pause between requests")
	fs.IntVar(&cfg.MaxAttempts, "attempts", cfg.MaxAttempts, "Tries per request, including the first")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the collector via SSH [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	fs.DurationVar(&cfg.SSHKeepAlive, "ssh-keepalive", cfg.SSHKeepAlive, "SSH keepalive interval (0 disables)")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("collectlink %s\n", version)
		return nil
	}

	// ── positional argument ──────────────────────────────────────
	endpoint := cfg.Endpoint
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		endpoint = rest[0]
	default:
		return fmt.Errorf("too many arguments: expected one collector endpoint")
	}
	if endpoint != "" {
		if err := cfg.ApplyEndpoint(endpoint); err != nil {
			return err
		}
	}
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(os.Stderr, "configuration OK: %s %s%s (tls=%t)\n", cfg.Method, cfg.Address(), cfg.Target, cfg.TLS)
		return nil
	}

	if body != "" {
		data, err := core.ReadBody(body)
		if err != nil {
			return err
		}
		cfg.Body = data
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose + 1)
	m := metrics.New()

	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr, m, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	mode, err := core.Build(cfg, logger, m)
	if err != nil {
		return err
	}
	err = mode.Run(ctx)
	logger.Verbose("metrics: %s", m.JSON())
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

// serveMetrics exposes m on addr until the returned stop is called.
func serveMetrics(addr string, m *metrics.Collector, logger *util.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(m))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, m.JSON()) //nolint:errcheck
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	logger.Verbose("metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `collectlink – push monitoring data to an HTTP(S) collector v%s

Usage:
  collectlink [options] <host:port>
  collectlink [options] http[s]://host[:port]/path

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  collectlink -d @batch.json https://collector.example.com/ingest
  collectlink -n 10 -i 5s -d - collector:8080 < sample.txt
  collectlink --ca-file ca.pem --tls-method tls1.3 https://10.0.0.5/v1
  collectlink -T ops@bastion -d ok collector.internal:80
`)
}
