package transport

import (
	"fmt"
	"net"
)

// TCPTransport is a plain TCP link to a unit.
type TCPTransport struct {
	netTransport
	host string
	port int
}

// NewTCPTransport creates a TCP transport for host:port. Zero config fields
// take the DefaultConfig values.
func NewTCPTransport(host string, port int, config Config) *TCPTransport {
	return &TCPTransport{
		netTransport: netTransport{typ: TypeTCP, config: config.withDefaults()},
		host:         host,
		port:         port,
	}
}

// Open dials the unit. The configured write timeout bounds each connect
// attempt; failed attempts are retried per the retry policy.
func (t *TCPTransport) Open() error {
	if t.opened() {
		return ErrAlreadyOpen
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	conn, err := dialRetry(t.config, func() (net.Conn, error) {
		return net.DialTimeout("tcp", addr, t.config.WriteTimeout)
	})
	if err != nil {
		return fmt.Errorf("tcp dial %s: %w", addr, err)
	}

	t.setConn(conn)
	return nil
}
