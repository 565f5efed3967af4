package tunnel

import (
	"context"
	"sync"
	"time"

	"collectlink/util"
)

// Manager keeps a Tunnel usable across the lifetime of a sender: it
// connects lazily, reconnects once the tunnel is found dead and, when
// an interval is given, probes it in the background.
type Manager struct {
	tunnel   Tunnel
	logger   *util.Logger
	interval time.Duration

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewManager returns a Manager for t.  interval <= 0 disables the
// background health loop.
func NewManager(t Tunnel, interval time.Duration, logger *util.Logger) *Manager {
	return &Manager{tunnel: t, interval: interval, logger: logger}
}

// Ensure returns once the tunnel is connected.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return context.Canceled
	}
	if m.tunnel.IsAlive() {
		return nil
	}
	if m.cancel != nil {
		m.logger.Info("SSH tunnel lost, reconnecting")
		m.cancel()
		m.cancel = nil
		_ = m.tunnel.Close()
	}
	if err := m.tunnel.Connect(ctx); err != nil {
		return err
	}

	if m.interval > 0 {
		hctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		go m.healthLoop(hctx)
	} else {
		m.cancel = func() {}
	}
	return nil
}

// Tunnel returns the managed tunnel.
func (m *Manager) Tunnel() Tunnel { return m.tunnel }

// Stop closes the tunnel; Ensure fails afterwards.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return m.tunnel.Close()
}

type pinger interface {
	Ping() error
}

func (m *Manager) healthLoop(ctx context.Context) {
	tick := time.NewTicker(m.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if p, ok := m.tunnel.(pinger); ok {
				if err := p.Ping(); err != nil {
					m.logger.Error("SSH keepalive failed: %v", err)
					_ = m.tunnel.Close()
					return
				}
			}
			if !m.tunnel.IsAlive() {
				m.logger.Error("SSH tunnel connection lost")
				return
			}
		}
	}
}
