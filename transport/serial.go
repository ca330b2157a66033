package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialConfig holds the line settings for a SerialTransport.
type SerialConfig struct {
	// Device is the serial device path (e.g. /dev/ttyUSB0)
	Device string

	// BaudRate in bits per second (default: 115200)
	BaudRate int

	// DataBits per frame, 5 to 8 (default: 8)
	DataBits int

	// StopBits is 1 or 2 (default: 1)
	StopBits int

	// Parity is "none", "odd" or "even" (default: none)
	Parity string
}

// mode translates the config into a serial.Mode, applying defaults.
func (c SerialConfig) mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch c.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", c.StopBits)
	}

	switch strings.ToLower(c.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", c.Parity)
	}

	return mode, nil
}

// SerialTransport is a serial line to a unit, used for bench and
// maintenance links where no network path exists.
type SerialTransport struct {
	config     Config
	serialConf SerialConfig

	mu   sync.Mutex
	port serial.Port
}

// NewSerialTransport creates a serial transport for the configured device.
func NewSerialTransport(serialConf SerialConfig, config Config) *SerialTransport {
	return &SerialTransport{
		config:     config.withDefaults(),
		serialConf: serialConf,
	}
}

// Open opens the device with the configured line settings.
func (t *SerialTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return ErrAlreadyOpen
	}

	mode, err := t.serialConf.mode()
	if err != nil {
		return err
	}

	port, err := serial.Open(t.serialConf.Device, mode)
	if err != nil {
		return fmt.Errorf("open serial %s: %w", t.serialConf.Device, err)
	}

	t.port = port
	return nil
}

// Close releases the device. Closing an already-closed transport is a no-op.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("serial close: %w", err)
	}
	return nil
}

// IsOpen returns true while the device is open.
func (t *SerialTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Send writes data to the line.
func (t *SerialTransport) Send(data []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, ErrNotOpen
	}

	n, err := port.Write(data)
	if err != nil {
		return n, fmt.Errorf("serial send: %w", err)
	}
	return n, nil
}

// Receive reads into buf, waiting up to timeout. The library reports a
// quiet line as (0, nil), which is exactly the soft-timeout contract.
func (t *SerialTransport) Receive(buf []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	port := t.port
	if timeout <= 0 {
		timeout = t.config.ReadTimeout
	}
	t.mu.Unlock()
	if port == nil {
		return 0, ErrNotOpen
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		return 0, fmt.Errorf("serial set read timeout: %w", err)
	}

	n, err := port.Read(buf)
	if err != nil {
		if n > 0 {
			return n, nil
		}
		return 0, fmt.Errorf("serial receive: %w", err)
	}
	return n, nil
}

// SetReadTimeout replaces the default read timeout.
func (t *SerialTransport) SetReadTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timeout > 0 {
		t.config.ReadTimeout = timeout
	}
}

// Type identifies the link kind.
func (t *SerialTransport) Type() Type {
	return TypeSerial
}

// Flush discards unread input and unsent output on the line. Useful before
// a command/response exchange on a line that may carry stale boot chatter.
func (t *SerialTransport) Flush() error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}

	if err := port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("serial flush input: %w", err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("serial flush output: %w", err)
	}
	return nil
}
