//go:build !linux

package transport

import (
	"net"
	"time"
)

func setKeepAliveTimes(tc *net.TCPConn, interval time.Duration) error {
	return tc.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     interval,
		Interval: interval,
	})
}
