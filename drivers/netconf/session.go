package netconf

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgelink-io/ran-southbound/pkg/logger"
)

// FrameEnd is the NETCONF 1.0 end-of-message delimiter. Framing is always
// 1.0: base:1.1 appears in the default capability list for peers that want
// to negotiate it, but chunked framing is not implemented here.
const FrameEnd = "]]>]]>"

// queueSize bounds the outbound and inbound message queues. Enqueueing
// blocks when the send worker falls behind.
const queueSize = 16

// readBufSize is the raw read size used by the receive worker.
const readBufSize = 64 * 1024

// session owns the NETCONF channel over one SSH connection: the framing
// workers, their queues and the message-id counter. It is created on
// Connect and discarded on Close.
type session struct {
	stdin  io.Writer
	stdout io.Reader
	logger *logger.Logger

	outbound chan []byte
	inbound  chan []byte
	done     chan struct{}

	closeOnce sync.Once
	sendMu    sync.Mutex
	closed    bool

	messageID uint64
}

// newSession wires the framing workers onto the NETCONF channel pipes.
func newSession(stdin io.Writer, stdout io.Reader, log *logger.Logger) *session {
	s := &session{
		stdin:    stdin,
		stdout:   stdout,
		logger:   log,
		outbound: make(chan []byte, queueSize),
		inbound:  make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
	go s.sendWorker()
	go s.receiveWorker()
	return s
}

// nextMessageID allocates the next message-id. IDs start at 1 and are
// strictly increasing for the life of the session.
func (s *session) nextMessageID() uint64 {
	return atomic.AddUint64(&s.messageID, 1)
}

// enqueue hands a message to the send worker. It blocks while the queue is
// full and aborts when the session shuts down or the context ends.
func (s *session) enqueue(ctx context.Context, msg []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	select {
	case s.outbound <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitMessage blocks for the next inbound message. Correlation is
// positional: the next message is the reply to whatever was last sent.
func (s *session) awaitMessage(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-s.inbound:
		if !ok {
			return nil, ErrSessionClosed
		}
		return msg, nil
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("no reply within %s: %w", timeout, ErrTimeout)
	}
}

// shutdown stops both workers and closes the outbound queue exactly once.
// lastMsg, when set, is written straight to the channel on the way out; the
// close-session courtesy must not depend on a live send worker.
func (s *session) shutdown(lastMsg []byte) {
	s.closeOnce.Do(func() {
		if lastMsg != nil {
			s.writeFrame(lastMsg) //nolint:errcheck // best effort
		}
		close(s.done)

		// A blocked enqueue wakes on done and releases sendMu; only then
		// is closing the queue safe.
		s.sendMu.Lock()
		s.closed = true
		close(s.outbound)
		s.sendMu.Unlock()
	})
}

// writeFrame writes one message followed by the end-of-message delimiter.
func (s *session) writeFrame(msg []byte) error {
	_, err := s.stdin.Write(append(msg, []byte(FrameEnd)...))
	return err
}

// sendWorker drains the outbound queue in enqueue order, appending the
// delimiter after every message.
func (s *session) sendWorker() {
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-s.outbound:
			if !ok {
				return
			}
			if err := s.writeFrame(msg); err != nil {
				s.logger.Debugf("netconf send worker: %v", err)
				return
			}
		}
	}
}

// receiveWorker accumulates raw bytes, splits them on the delimiter and
// publishes whole messages in arrival order. A trailing partial message is
// retained for the next read.
func (s *session) receiveWorker() {
	defer close(s.inbound)

	buf := make([]byte, readBufSize)
	var pending []byte
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.stdout.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				idx := bytes.Index(pending, []byte(FrameEnd))
				if idx < 0 {
					break
				}
				msg := append([]byte(nil), bytes.TrimSpace(pending[:idx])...)
				pending = append([]byte(nil), pending[idx+len(FrameEnd):]...)

				select {
				case s.inbound <- msg:
				case <-s.done:
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Debugf("netconf receive worker: %v", err)
			}
			return
		}
	}
}

// helloMessage builds the client hello. The base:1.0 capability is always
// included; the session is unusable without it.
func helloMessage(capabilities []string) []byte {
	caps := capabilities
	if len(caps) == 0 {
		caps = DefaultCapabilities
	}
	hasBase := false
	for _, c := range caps {
		if c == CapBase10 {
			hasBase = true
			break
		}
	}
	if !hasBase {
		caps = append([]string{CapBase10}, caps...)
	}

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<hello xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\">\n")
	sb.WriteString("  <capabilities>\n")
	for _, c := range caps {
		sb.WriteString("    <capability>" + c + "</capability>\n")
	}
	sb.WriteString("  </capabilities>\n")
	sb.WriteString("</hello>")
	return []byte(sb.String())
}

// sessionIDPattern matches the peer-assigned session-id. Pattern matching
// tolerates units that wrap the hello in vendor namespaces a strict
// unmarshal would reject.
var sessionIDPattern = regexp.MustCompile(`<session-id>\s*(\d+)\s*</session-id>`)

// parseHello extracts the peer capabilities and the assigned session-id
// from a hello message.
func parseHello(data []byte) ([]string, string) {
	type hello struct {
		XMLName      xml.Name `xml:"hello"`
		Capabilities struct {
			Capability []string `xml:"capability"`
		} `xml:"capabilities"`
	}

	var capabilities []string
	var h hello
	if err := xml.Unmarshal(data, &h); err == nil {
		capabilities = h.Capabilities.Capability
	}

	var sessionID string
	if m := sessionIDPattern.FindSubmatch(data); m != nil {
		sessionID = string(m[1])
	}

	return capabilities, sessionID
}
