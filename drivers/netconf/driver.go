package netconf

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/edgelink-io/ran-southbound/mapping"
	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

// NETCONF capability URNs.
const (
	CapBase10          = "urn:ietf:params:netconf:base:1.0"
	CapBase11          = "urn:ietf:params:netconf:base:1.1"
	CapWritableRunning = "urn:ietf:params:netconf:capability:writable-running:1.0"
	CapCandidate       = "urn:ietf:params:netconf:capability:candidate:1.0"
	CapStartup         = "urn:ietf:params:netconf:capability:startup:1.0"
	CapXPath           = "urn:ietf:params:netconf:capability:xpath:1.0"
)

// DefaultCapabilities is the capability list advertised when the device
// config does not set one.
var DefaultCapabilities = []string{
	CapBase10,
	CapBase11,
	CapWritableRunning,
	CapCandidate,
	CapStartup,
}

var (
	// ErrNotConnected is returned by operations that need a Ready session.
	ErrNotConnected = errors.New("not connected")
	// ErrSessionClosed is returned when the session shut down mid-operation.
	ErrSessionClosed = errors.New("session closed")
	// ErrTimeout is returned when the peer does not reply in time.
	ErrTimeout = errors.New("timeout")
)

// State is the driver's session state.
type State int32

// Session states, in connection order.
const (
	StateDisconnected State = iota
	StateConnecting
	StateHelloPending
	StateReady
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateHelloPending:
		return "HELLO_PENDING"
	case StateReady:
		return "READY"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Driver collects telemetry from a radio or baseband unit over
// NETCONF-in-SSH. One driver owns at most one session at a time.
type Driver struct {
	config   *types.DeviceConfig
	mappings []mapping.MetricMapping
	logger   *logger.Logger

	mu           sync.RWMutex
	state        State
	sshClient    *ssh.Client
	sshSession   *ssh.Session
	session      *session
	sessionID    string
	capabilities []string

	// rpcMu keeps a single RPC in flight; reply correlation is positional.
	rpcMu sync.Mutex
}

var _ types.Collector = (*Driver)(nil)

// NewDriver creates a NETCONF collector for one unit. The metric mapping
// table is resolved here and stays fixed for the driver's lifetime. A nil
// logger disables logging.
func NewDriver(config *types.DeviceConfig, log *logger.Logger) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if config.Port == 0 {
		config.Port = 830
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Source == "" {
		config.Source = types.SourceRunning
	}

	return &Driver{
		config:   config,
		mappings: mapping.ForDevice(config.Type, config.CustomMappings),
		logger:   log,
	}, nil
}

// Connect dials the unit, opens the netconf SSH subsystem and completes the
// hello exchange. On return the session is Ready and RPCs may be issued.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateDisconnected {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("connect in state %s", state)
	}
	d.state = StateConnecting
	d.mu.Unlock()

	sshConfig, err := d.sshClientConfig()
	if err != nil {
		d.setState(StateDisconnected)
		return err
	}

	addr := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		d.setState(StateDisconnected)
		return fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sshSession, err := client.NewSession()
	if err != nil {
		client.Close()
		d.setState(StateDisconnected)
		return fmt.Errorf("ssh session: %w", err)
	}

	stdin, err := sshSession.StdinPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		d.setState(StateDisconnected)
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := sshSession.StdoutPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		d.setState(StateDisconnected)
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := sshSession.RequestSubsystem("netconf"); err != nil {
		sshSession.Close()
		client.Close()
		d.setState(StateDisconnected)
		return fmt.Errorf("netconf subsystem: %w", err)
	}

	sess := newSession(stdin, stdout, d.logger)

	d.mu.Lock()
	d.sshClient = client
	d.sshSession = sshSession
	d.session = sess
	d.state = StateHelloPending
	d.mu.Unlock()

	if err := d.exchangeHello(ctx, sess); err != nil {
		d.teardown(sess, sshSession, client)
		return fmt.Errorf("hello exchange with %s: %w", addr, err)
	}

	d.mu.Lock()
	d.state = StateReady
	d.mu.Unlock()

	d.logger.Infof("netconf session %s established with %s", d.SessionID(), addr)
	return nil
}

// exchangeHello sends the client hello and waits for the peer's. The peer
// must answer within the configured timeout and must assign a session-id.
func (d *Driver) exchangeHello(ctx context.Context, sess *session) error {
	if err := sess.enqueue(ctx, helloMessage(d.config.Capabilities)); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	peerHello, err := sess.awaitMessage(ctx, d.config.Timeout)
	if err != nil {
		return fmt.Errorf("awaiting peer hello: %w", err)
	}

	capabilities, sessionID := parseHello(peerHello)
	if sessionID == "" {
		return fmt.Errorf("peer hello carries no session-id")
	}

	d.mu.Lock()
	d.capabilities = capabilities
	d.sessionID = sessionID
	d.mu.Unlock()
	return nil
}

// sshClientConfig builds the SSH side of the session: password plus
// keyboard-interactive auth (many units only offer the latter), an optional
// private key, and the configured host-key policy.
func (d *Driver) sshClientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if d.config.PrivateKeyPath != "" {
		key, err := os.ReadFile(d.config.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", d.config.PrivateKeyPath, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if d.config.Password != "" {
		password := d.config.Password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no credentials: set password or private key path")
	}

	hostKey, err := d.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            d.config.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         d.config.Timeout,
	}, nil
}

// hostKeyCallback resolves the configured host-key verification mode. An
// unrecognized mode degrades to ignore with a logged warning rather than
// failing closed.
func (d *Driver) hostKeyCallback() (ssh.HostKeyCallback, error) {
	mode := d.config.HostKeyVerify
	if mode == "" {
		mode = types.HostKeyKnownHosts
	}

	switch mode {
	case types.HostKeyIgnore:
		d.logger.Warnf("host-key verification disabled for %s", d.config.Host)
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // policy selected by config
	case types.HostKeyKnownHosts:
		path := d.config.KnownHostsPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve known_hosts path: %w", err)
			}
			path = filepath.Join(home, ".ssh", "known_hosts")
		}
		callback, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
		}
		return callback, nil
	default:
		d.logger.Warnf("unknown host-key mode %q for %s, ignoring host keys", mode, d.config.Host)
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // degraded mode warns above
	}
}

// Close tears the session down: a best-effort close-session RPC, the worker
// shutdown signal, then the SSH teardown. State is cleared regardless of
// what the socket does. Safe to call repeatedly.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.state == StateDisconnected || d.state == StateClosing {
		d.mu.Unlock()
		return nil
	}
	d.state = StateClosing
	sess := d.session
	sshSession := d.sshSession
	client := d.sshClient
	d.mu.Unlock()

	if sess != nil {
		closeRPC := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rpc message-id="%d" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <close-session/>
</rpc>`, sess.nextMessageID())
		sess.shutdown([]byte(closeRPC))
	}
	if sshSession != nil {
		sshSession.Close() //nolint:errcheck // best effort
	}
	if client != nil {
		client.Close() //nolint:errcheck // best effort
	}

	d.mu.Lock()
	d.session = nil
	d.sshSession = nil
	d.sshClient = nil
	d.sessionID = ""
	d.capabilities = nil
	d.state = StateDisconnected
	d.mu.Unlock()

	d.logger.Infof("netconf session with %s closed", d.config.Host)
	return nil
}

// teardown discards a half-open connection without the close-session
// courtesy. Used when the hello exchange fails.
func (d *Driver) teardown(sess *session, sshSession *ssh.Session, client *ssh.Client) {
	if sess != nil {
		sess.shutdown(nil)
	}
	if sshSession != nil {
		sshSession.Close() //nolint:errcheck // best effort
	}
	if client != nil {
		client.Close() //nolint:errcheck // best effort
	}

	d.mu.Lock()
	d.session = nil
	d.sshSession = nil
	d.sshClient = nil
	d.sessionID = ""
	d.capabilities = nil
	d.state = StateDisconnected
	d.mu.Unlock()
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// State returns the current session state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// IsConnected reports whether the session is Ready.
func (d *Driver) IsConnected() bool {
	return d.State() == StateReady
}

// SessionID returns the peer-assigned session identifier, empty until the
// hello exchange completes.
func (d *Driver) SessionID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessionID
}

// Capabilities returns the capabilities the peer advertised in its hello.
func (d *Driver) Capabilities() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	caps := make([]string, len(d.capabilities))
	copy(caps, d.capabilities)
	return caps
}

// HasCapability reports whether the peer advertised a capability URN.
// Matching is by substring: units vary the version suffix.
func (d *Driver) HasCapability(capability string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.capabilities {
		if strings.Contains(c, capability) {
			return true
		}
	}
	return false
}

// RPC sends a raw RPC body wrapped in the standard envelope and returns the
// reply. Replies containing rpc-error come back with a non-nil error and
// the raw reply for callers that want the full document.
func (d *Driver) RPC(ctx context.Context, body string) ([]byte, error) {
	return d.sendRPC(ctx, body)
}

// Get issues a get, optionally scoped by a subtree filter fragment.
func (d *Driver) Get(ctx context.Context, filter string) ([]byte, error) {
	var body string
	if filter != "" {
		body = fmt.Sprintf(`<get>
  <filter type="subtree">
    %s
  </filter>
</get>`, filter)
	} else {
		body = "<get/>"
	}
	return d.sendRPC(ctx, body)
}

// GetConfig reads a configuration datastore, optionally scoped by a subtree
// filter fragment. An empty source reads the driver's configured default.
func (d *Driver) GetConfig(ctx context.Context, source, filter string) ([]byte, error) {
	if source == "" {
		source = d.config.Source
	}
	switch source {
	case types.SourceRunning, types.SourceCandidate, types.SourceStartup:
	default:
		return nil, fmt.Errorf("unknown datastore %q", source)
	}

	var sb strings.Builder
	sb.WriteString("<get-config>\n  <source>\n    <" + source + "/>\n  </source>")
	if filter != "" {
		sb.WriteString("\n  <filter type=\"subtree\">\n    " + filter + "\n  </filter>")
	}
	sb.WriteString("\n</get-config>")
	return d.sendRPC(ctx, sb.String())
}

// sendRPC wraps body in an rpc envelope with the next message-id, enqueues
// it and waits for the next inbound message. One RPC is in flight at a
// time; rpcMu serializes callers.
func (d *Driver) sendRPC(ctx context.Context, body string) ([]byte, error) {
	d.rpcMu.Lock()
	defer d.rpcMu.Unlock()

	d.mu.RLock()
	sess := d.session
	state := d.state
	d.mu.RUnlock()
	if state != StateReady || sess == nil {
		return nil, ErrNotConnected
	}

	msgID := sess.nextMessageID()
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rpc message-id="%d" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
%s
</rpc>`, msgID, body)

	if err := sess.enqueue(ctx, []byte(envelope)); err != nil {
		return nil, fmt.Errorf("send rpc %d: %w", msgID, err)
	}

	reply, err := sess.awaitMessage(ctx, d.config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("rpc %d: %w", msgID, err)
	}

	if bytes.Contains(reply, []byte("<rpc-error")) {
		return reply, fmt.Errorf("rpc %d: %s", msgID, extractRPCError(reply))
	}
	return reply, nil
}

// extractRPCError pulls the human-readable message out of an rpc-error
// reply, or a generic text when the unit omits it.
func extractRPCError(reply []byte) string {
	type rpcError struct {
		Type    string `xml:"error-type"`
		Tag     string `xml:"error-tag"`
		Message string `xml:"error-message"`
	}
	type rpcReply struct {
		XMLName xml.Name   `xml:"rpc-reply"`
		Errors  []rpcError `xml:"rpc-error"`
	}

	var parsed rpcReply
	if err := xml.Unmarshal(reply, &parsed); err == nil && len(parsed.Errors) > 0 {
		if msg := strings.TrimSpace(parsed.Errors[0].Message); msg != "" {
			return msg
		}
	}
	return "unknown error"
}

// CollectMetrics walks the unit's mapping table, batching mappings that
// share a subtree into one get each. A failed get skips that group; a
// mapping whose leaf is missing or non-numeric is skipped at debug level.
// Whatever was collected is returned.
func (d *Driver) CollectMetrics(ctx context.Context) ([]types.Metric, error) {
	if !d.IsConnected() {
		return nil, ErrNotConnected
	}

	groups := mapping.GroupBySubtree(d.mappings)
	metrics := make([]types.Metric, 0, len(d.mappings))
	for _, group := range groups {
		reply, err := d.Get(ctx, subtreeFilter(group.Key))
		if err != nil {
			d.logger.Warnf("get %s on %s: %v", group.Key, d.config.Name, err)
			continue
		}
		for _, m := range group.Mappings {
			value, err := extractLeaf(reply, m.Path)
			if err != nil {
				d.logger.Debugf("extract %s on %s: %v", m.Path, d.config.Name, err)
				continue
			}
			metrics = append(metrics, types.Metric{Type: m.Type, Value: m.Apply(value)})
		}
	}
	return metrics, nil
}

// CollectMetric reads a single metric. Unlike CollectMetrics, every failure
// surfaces: the caller asked for this specific value.
func (d *Driver) CollectMetric(ctx context.Context, metric types.MetricType) (types.Metric, error) {
	if !d.IsConnected() {
		return types.Metric{}, ErrNotConnected
	}

	m, ok := mapping.Find(d.mappings, metric)
	if !ok {
		return types.Metric{}, fmt.Errorf("no mapping for metric %q on device type %q", metric, d.config.Type)
	}

	reply, err := d.Get(ctx, subtreeFilter(mapping.SubtreeKey(m.Path)))
	if err != nil {
		return types.Metric{}, err
	}
	value, err := extractLeaf(reply, m.Path)
	if err != nil {
		return types.Metric{}, err
	}
	return types.Metric{Type: metric, Value: m.Apply(value)}, nil
}

// HealthCheck verifies the session is usable by issuing a plain get.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if !d.IsConnected() {
		return ErrNotConnected
	}
	if _, err := d.Get(ctx, ""); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}
