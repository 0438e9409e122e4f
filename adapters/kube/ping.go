package kube

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"

	"github.com/xlab-si/lcm-engine/internal/logging"
)

// PingHost reports whether host answers on the network. It opens a TCP
// connection to the configured ping port; a refused connection still proves
// the host is up.
func (c *Client) PingHost(ctx context.Context, host string) bool {
	if c == nil || host == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(c.pingPort)))
	if err == nil {
		_ = conn.Close()
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	logging.FromContext(ctx).Debug(ctx, "KubeClient:PingHost/efail", "host", host, "err", err)
	return false
}
