// Package transport provides byte-oriented links to radio units: plain TCP,
// TLS and serial lines behind a single contract, plus a buffered reader for
// protocols that parse counted payloads.
package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Type identifies the underlying link kind
type Type string

const (
	TypeTCP    Type = "tcp"
	TypeTLS    Type = "tls"
	TypeSerial Type = "serial"
)

// Transport errors.
var (
	ErrNotOpen     = errors.New("transport not open")
	ErrAlreadyOpen = errors.New("transport already open")
	ErrReadTimeout = errors.New("read timeout")
)

// Transport is a byte-oriented link to a unit.
//
// Receive is a soft wait: when the timeout expires with no data the return
// is (0, nil), so polling loops can spin on a quiet link without treating
// silence as a failure. Link errors and peer closes are real errors.
type Transport interface {
	// Open establishes the link, retrying per the configured retry policy
	Open() error

	// Close tears the link down. Safe to call repeatedly.
	Close() error

	// IsOpen returns true while the link is established
	IsOpen() bool

	// Send writes data and returns the number of bytes written
	Send(data []byte) (int, error)

	// Receive reads into buf, waiting up to timeout for data.
	// A timeout <= 0 means the configured default read timeout.
	Receive(buf []byte, timeout time.Duration) (int, error)

	// SetReadTimeout replaces the default read timeout
	SetReadTimeout(timeout time.Duration)

	// Type identifies the link kind
	Type() Type
}

// Config holds the settings shared by every transport kind.
type Config struct {
	// ReadTimeout is the default Receive wait (default: 5s)
	ReadTimeout time.Duration

	// WriteTimeout bounds Send and connect attempts (default: 5s)
	WriteTimeout time.Duration

	// RetryCount is the number of additional Open attempts after the
	// first fails (default: 3)
	RetryCount int

	// RetryDelay is the pause between Open attempts (default: 1s)
	RetryDelay time.Duration
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		RetryCount:   3,
		RetryDelay:   time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig. A negative RetryCount
// disables retries entirely.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.RetryCount == 0 {
		c.RetryCount = def.RetryCount
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	return c
}

// dialRetry runs dial up to RetryCount+1 times with RetryDelay pauses and
// returns the first connection that succeeds.
func dialRetry(config Config, dial func() (net.Conn, error)) (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(config.RetryDelay)
		}
		conn, err := dial()
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	return nil, lastErr
}

// netTransport implements the conn-backed part of the contract shared by the
// TCP and TLS transports. Open stays with the concrete types.
type netTransport struct {
	typ    Type
	config Config

	mu   sync.Mutex
	conn net.Conn
}

// Close tears the link down. Closing an already-closed transport is a no-op.
func (t *netTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return fmt.Errorf("%s close: %w", t.typ, err)
	}
	return nil
}

// IsOpen returns true while the link is established.
func (t *netTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send writes data within the configured write timeout.
func (t *netTransport) Send(data []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrNotOpen
	}

	if t.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
		defer conn.SetWriteDeadline(time.Time{})
	}

	n, err := conn.Write(data)
	if err != nil {
		return n, fmt.Errorf("%s send: %w", t.typ, err)
	}
	return n, nil
}

// Receive reads into buf, waiting up to timeout. A deadline expiry with no
// data returns (0, nil); data arriving alongside the expiry is returned
// without an error.
func (t *netTransport) Receive(buf []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	conn := t.conn
	if timeout <= 0 {
		timeout = t.config.ReadTimeout
	}
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrNotOpen
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("%s set read deadline: %w", t.typ, err)
	}

	n, err := conn.Read(buf)
	if err != nil {
		if n > 0 {
			return n, nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil
		}
		return 0, fmt.Errorf("%s receive: %w", t.typ, err)
	}
	return n, nil
}

// SetReadTimeout replaces the default read timeout used when Receive is
// called with a non-positive timeout.
func (t *netTransport) SetReadTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timeout > 0 {
		t.config.ReadTimeout = timeout
	}
}

// Type identifies the link kind.
func (t *netTransport) Type() Type {
	return t.typ
}

// setConn installs the connection after a successful dial.
func (t *netTransport) setConn(conn net.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

// opened reports whether a connection is already installed.
func (t *netTransport) opened() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}
