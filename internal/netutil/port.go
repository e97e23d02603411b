// Package netutil holds small networking helpers.
package netutil

import (
	"fmt"
	"net"
)

// RandomPort asks the kernel for a free TCP port on loopback and returns
// it. The listener is closed before returning, so the port is only
// probably free; callers should bind it promptly.
func RandomPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}
