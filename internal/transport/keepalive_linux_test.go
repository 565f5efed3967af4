//go:build linux

package transport

import (
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestSetKeepAliveTimes_Linux(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			defer c.Close()
			time.Sleep(100 * time.Millisecond)
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	tc := conn.(*net.TCPConn)

	setTCPKeepAlive(tc, 42*time.Second, nil)

	raw, err := tc.SyscallConn()
	if err != nil {
		t.Fatal(err)
	}
	var enabled, idle, intvl int
	var gerr error
	err = raw.Control(func(fd uintptr) {
		if enabled, gerr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE); gerr != nil {
			return
		}
		if idle, gerr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE); gerr != nil {
			return
		}
		intvl, gerr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL)
	})
	if err != nil || gerr != nil {
		t.Fatalf("getsockopt: %v %v", err, gerr)
	}
	if enabled == 0 {
		t.Error("SO_KEEPALIVE not set")
	}
	if idle != 42 || intvl != 42 {
		t.Errorf("idle=%d interval=%d, want 42/42", idle, intvl)
	}
}
