package transport

import (
	"fmt"
	"time"
)

// readChunkSize is the scratch read size used to fill the lookahead buffer.
const readChunkSize = 512

// BufferedTransport wraps a Transport with exact-count reads for protocols
// that interleave single control bytes with counted payloads. Underlying
// reads pull whole chunks; bytes beyond the requested count stay buffered
// for the next call.
//
// A BufferedTransport is not safe for concurrent readers.
type BufferedTransport struct {
	t   Transport
	buf []byte
}

// NewBufferedTransport wraps t.
func NewBufferedTransport(t Transport) *BufferedTransport {
	return &BufferedTransport{t: t}
}

// Transport returns the wrapped transport.
func (b *BufferedTransport) Transport() Transport {
	return b.t
}

// Buffered returns the number of lookahead bytes already read from the
// link but not yet consumed.
func (b *BufferedTransport) Buffered() int {
	return len(b.buf)
}

// ReadByte returns the next byte, waiting up to timeout for it.
func (b *BufferedTransport) ReadByte(timeout time.Duration) (byte, error) {
	p, err := b.ReadBytes(1, timeout)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadBytes returns exactly count bytes. The timeout spans the whole call:
// each underlying read waits only for the remaining wall-clock budget. On
// expiry the bytes collected so far are returned together with
// ErrReadTimeout, so callers can tell a short frame from a dead link.
func (b *BufferedTransport) ReadBytes(count int, timeout time.Duration) ([]byte, error) {
	if count <= 0 {
		return nil, nil
	}

	deadline := time.Now().Add(timeout)
	for len(b.buf) < count {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			got := b.take(len(b.buf))
			return got, fmt.Errorf("read %d of %d bytes: %w", len(got), count, ErrReadTimeout)
		}

		scratch := make([]byte, readChunkSize)
		n, err := b.t.Receive(scratch, remaining)
		if err != nil {
			got := b.take(len(b.buf))
			return got, fmt.Errorf("read %d of %d bytes: %w", len(got), count, err)
		}
		b.buf = append(b.buf, scratch[:n]...)
	}

	return b.take(count), nil
}

// take removes and returns the first n buffered bytes.
func (b *BufferedTransport) take(n int) []byte {
	out := make([]byte, n)
	copy(out, b.buf)
	b.buf = b.buf[n:]
	if len(b.buf) == 0 {
		b.buf = nil
	}
	return out
}
