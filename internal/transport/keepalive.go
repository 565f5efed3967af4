package transport

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"collectlink/util"
)

var keepAliveTimeout = regexp.MustCompile(`(?i)timeout\s*=\s*(\d+)`)

// decideKeepAlive reports whether the connection may be reused after
// resp and, if so, until when.  Malformed input never fails: it falls
// back to def.
func decideKeepAlive(resp *Response, now time.Time, def time.Duration) (keep bool, deadline time.Time) {
	if resp.Close || httpguts.HeaderValuesContainsToken(resp.Header["Connection"], "close") {
		return false, time.Time{}
	}

	if values := resp.Header.Values("Keep-Alive"); len(values) > 0 {
		m := keepAliveTimeout.FindStringSubmatch(strings.Join(values, ","))
		if m != nil {
			// 32 bits keeps the multiplication below from overflowing.
			if secs, err := strconv.ParseInt(m[1], 10, 32); err == nil {
				return true, now.Add(time.Duration(secs) * time.Second)
			}
		}
	}
	return true, now.Add(def)
}

// setTCPKeepAlive enables keep-alive probes on nc.  Failures are logged
// and ignored; the connection stays usable.  Connections that are not
// TCP sockets (an SSH channel) are left alone.
func setTCPKeepAlive(nc net.Conn, interval time.Duration, logger *util.Logger) {
	if interval <= 0 {
		return
	}
	tc, ok := nc.(*net.TCPConn)
	if !ok {
		logger.Debug("keep-alive: %T is not a TCP socket, skipped", nc)
		return
	}
	if err := tc.SetKeepAlive(true); err != nil {
		logger.Error("fail to activate keep alive: %v", err)
		return
	}
	if err := setKeepAliveTimes(tc, interval); err != nil {
		logger.Error("fail to modify keep alive interval: %v", err)
	}
}
