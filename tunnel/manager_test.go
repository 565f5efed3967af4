package tunnel

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// fakeTunnel records Connect/Close calls and lets tests kill it.
type fakeTunnel struct {
	mu       sync.Mutex
	alive    bool
	connects int
	closes   int
	pingErr  error
	connErr  error
}

func (f *fakeTunnel) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connErr != nil {
		return f.connErr
	}
	f.alive = true
	return nil
}

func (f *fakeTunnel) Dial(context.Context, string, string) (net.Conn, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTunnel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.alive = false
	return nil
}

func (f *fakeTunnel) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeTunnel) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeTunnel) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.closes
}

func TestManager_EnsureConnectsOnce(t *testing.T) {
	ft := &fakeTunnel{}
	m := NewManager(ft, 0, nil)

	for i := 0; i < 3; i++ {
		if err := m.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if c, _ := ft.counts(); c != 1 {
		t.Errorf("connects = %d, want 1", c)
	}
}

func TestManager_ReconnectsDeadTunnel(t *testing.T) {
	ft := &fakeTunnel{}
	m := NewManager(ft, 0, nil)

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	ft.Close()

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c, _ := ft.counts(); c != 2 {
		t.Errorf("connects = %d, want 2", c)
	}
	if !ft.IsAlive() {
		t.Error("tunnel should be alive after reconnect")
	}
}

func TestManager_ConnectError(t *testing.T) {
	want := errors.New("bastion unreachable")
	m := NewManager(&fakeTunnel{connErr: want}, 0, nil)
	if err := m.Ensure(context.Background()); !errors.Is(err, want) {
		t.Fatalf("Ensure = %v, want %v", err, want)
	}
}

func TestManager_StopPreventsEnsure(t *testing.T) {
	ft := &fakeTunnel{}
	m := NewManager(ft, 0, nil)
	if err := m.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := m.Ensure(context.Background()); err == nil {
		t.Fatal("Ensure after Stop should fail")
	}
	if ft.IsAlive() {
		t.Error("tunnel still alive after Stop")
	}
}

func TestManager_HealthLoopClosesOnFailedPing(t *testing.T) {
	ft := &fakeTunnel{pingErr: errors.New("no reply")}
	m := NewManager(ft, 10*time.Millisecond, nil)
	defer m.Stop()

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ft.IsAlive() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ft.IsAlive() {
		t.Fatal("health loop did not close the tunnel after a failed ping")
	}
}
