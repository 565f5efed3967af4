//go:build linux

package transport

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// setKeepAliveTimes sets the idle delay before the first probe and the
// probe interval, both to interval.  System defaults (7200s) are too
// long to keep a NAT mapping alive.
func setKeepAliveTimes(tc *net.TCPConn, interval time.Duration) error {
	secs := int(interval / time.Second)
	if secs < 1 {
		secs = 1
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	err = raw.Control(func(fd uintptr) {
		if opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, secs); opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs)
	})
	if err != nil {
		return err
	}
	return opErr
}
