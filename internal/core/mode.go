// Package core is the orchestration layer.  It maps a Config onto
// transport connections and drives them on behalf of the CLI.
//
// Architecture layers (bottom → top):
//
//	transport  →  retry  →  core (Sender, PushMode)  →  cmd (CLI)
//
// The builder in this package is the single place that creates a
// transport.ConnectionConfig.
package core

import "context"

// Mode represents a complete run of collectlink.  Each mode owns its
// full lifecycle from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
