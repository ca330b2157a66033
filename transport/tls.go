package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
)

// TLSConfig holds the TLS settings for a TLSTransport. Certificates and CA
// bundles are referenced by file path so configs stay serializable.
type TLSConfig struct {
	// Enabled marks the link as TLS when transports are built from a
	// station config
	Enabled bool

	// CertFile and KeyFile form the client certificate pair for mutual
	// TLS. Both empty means no client certificate is presented.
	CertFile string
	KeyFile  string

	// CAFile is a PEM bundle of trusted CAs. Empty means system roots.
	CAFile string

	// ServerName overrides the hostname used for certificate verification
	ServerName string

	// InsecureSkipVerify disables certificate verification. Testing only.
	InsecureSkipVerify bool

	// MinVersion and MaxVersion bound the negotiated protocol version.
	// Zero values mean TLS 1.2 and TLS 1.3.
	MinVersion uint16
	MaxVersion uint16
}

// build translates the file-based settings into a *tls.Config.
func (c TLSConfig) build() (*tls.Config, error) {
	tc := &tls.Config{
		MinVersion:         c.MinVersion,
		MaxVersion:         c.MaxVersion,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	if tc.MinVersion == 0 {
		tc.MinVersion = tls.VersionTLS12
	}
	if tc.MaxVersion == 0 {
		tc.MaxVersion = tls.VersionTLS13
	}

	if c.CertFile != "" || c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s contains no certificates", c.CAFile)
		}
		tc.RootCAs = pool
	}

	return tc, nil
}

// TLSTransport is a TLS link to a unit.
type TLSTransport struct {
	netTransport
	host      string
	port      int
	tlsConfig TLSConfig
}

// NewTLSTransport creates a TLS transport for host:port.
func NewTLSTransport(host string, port int, config Config, tlsConfig TLSConfig) *TLSTransport {
	return &TLSTransport{
		netTransport: netTransport{typ: TypeTLS, config: config.withDefaults()},
		host:         host,
		port:         port,
		tlsConfig:    tlsConfig,
	}
}

// Open dials the unit and completes the TLS handshake. The link is only
// considered open once the handshake has finished, so certificate problems
// surface here rather than on the first Send.
func (t *TLSTransport) Open() error {
	if t.opened() {
		return ErrAlreadyOpen
	}

	tlsCfg, err := t.tlsConfig.build()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	conn, err := dialRetry(t.config, func() (net.Conn, error) {
		dialer := &net.Dialer{Timeout: t.config.WriteTimeout}
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
		if err != nil {
			return nil, err
		}
		if !conn.ConnectionState().HandshakeComplete {
			conn.Close()
			return nil, errors.New("handshake not complete")
		}
		return conn, nil
	})
	if err != nil {
		return fmt.Errorf("tls dial %s: %w", addr, err)
	}

	t.setConn(conn)
	return nil
}

// ConnectionState returns the TLS state of the open link.
func (t *TLSTransport) ConnectionState() (tls.ConnectionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tlsConn, ok := t.conn.(*tls.Conn); ok {
		return tlsConn.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}
