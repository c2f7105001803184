// Package netutil holds small host networking helpers.
package netutil

import (
	"fmt"
	"net"
)

// FreePort returns the first TCP port in [start, end] that can actually be
// bound on localhost. Binding (rather than dialing) also catches ports held
// by stopped-but-listening processes regardless of firewall rules.
func FreePort(start, end int) (int, error) {
	if start <= 0 || end < start {
		return 0, fmt.Errorf("invalid port range %d-%d", start, end)
	}
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p))
		if err != nil {
			continue
		}
		l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}
