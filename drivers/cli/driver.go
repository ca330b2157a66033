// Package cli implements metric collection for units that expose nothing
// but an interactive shell. An expect-driven SSH PTY session runs per-vendor
// show commands and regexp probes pull the values out of the output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

// ErrNotConnected is returned when an operation needs a live shell session.
var ErrNotConnected = errors.New("not connected")

// runner is the shell surface the driver needs; satisfied by ExpectSession.
type runner interface {
	Execute(command string) (string, error)
	Close() error
}

// Driver collects metrics from one unit over an interactive CLI.
type Driver struct {
	config *types.DeviceConfig
	probes []Probe
	logger *logger.Logger

	mu        sync.Mutex
	sshClient *ssh.Client
	session   runner

	// cmdMu serializes commands; the PTY is a single stream.
	cmdMu sync.Mutex
}

var (
	_ types.Collector   = (*Driver)(nil)
	_ types.CLIExecutor = (*Driver)(nil)
)

// NewDriver validates the config and prepares a disconnected driver.
func NewDriver(config *types.DeviceConfig, log *logger.Logger) (*Driver, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Host == "" {
		return nil, errors.New("host is required")
	}
	if config.Username == "" {
		return nil, errors.New("username is required")
	}
	if config.Port == 0 {
		config.Port = 22
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Driver{
		config: config,
		probes: ProbesForDevice(config.Type),
		logger: log,
	}, nil
}

// Connect dials SSH and brings up the expect session, including the initial
// prompt wait and pager disable.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sshConfig, err := d.sshClientConfig()
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)
	client, err := ssh.Dial("tcp", target, sshConfig)
	if err != nil {
		return fmt.Errorf("cli dial %s: %w", target, err)
	}

	session, err := NewExpectSession(ExpectSessionConfig{
		Client:       client,
		DeviceType:   d.config.Type,
		Timeout:      d.config.Timeout,
		DisablePager: true,
	})
	if err != nil {
		client.Close() //nolint:errcheck
		return fmt.Errorf("cli session %s: %w", target, err)
	}

	d.sshClient = client
	d.session = session
	d.logger.Infof("connected to %s (%s, cli)", d.config.Name, target)
	return nil
}

// sshClientConfig builds the SSH side: optional private key, then password
// plus keyboard-interactive (many units only offer the latter), and the
// configured host-key policy.
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

// Close ends the shell session and the SSH connection. Safe to call
// repeatedly.
func (d *Driver) Close() error {
	d.mu.Lock()
	session := d.session
	client := d.sshClient
	d.session = nil
	d.sshClient = nil
	d.mu.Unlock()

	if session == nil && client == nil {
		return nil
	}
	if session != nil {
		session.Close() //nolint:errcheck // best effort before the transport drops
	}
	var err error
	if client != nil {
		err = client.Close()
	}
	d.logger.Infof("disconnected from %s", d.config.Name)
	return err
}

// IsConnected reports whether the shell session is up.
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session != nil
}

// execCommand runs one command on the shared PTY. The session timeout
// bounds the wait; the context gates entry.
func (d *Driver) execCommand(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return "", ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()
	output, err := session.Execute(command)
	if err != nil {
		return output, fmt.Errorf("command %q: %w", command, err)
	}
	return output, nil
}

// ExecCommand runs a single CLI command and returns its cleaned output.
func (d *Driver) ExecCommand(ctx context.Context, command string) (string, error) {
	return d.execCommand(ctx, command)
}

// ExecCommands runs commands in order, stopping at the first failure. The
// outputs gathered so far are returned alongside the error.
func (d *Driver) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	results := make([]string, 0, len(commands))
	for _, cmd := range commands {
		output, err := d.execCommand(ctx, cmd)
		if err != nil {
			return results, err
		}
		results = append(results, output)
	}
	return results, nil
}

// CollectMetrics runs every probe for the device type. Probes whose command
// fails or whose pattern finds nothing are logged and skipped.
func (d *Driver) CollectMetrics(ctx context.Context) ([]types.Metric, error) {
	if !d.IsConnected() {
		return nil, ErrNotConnected
	}

	var metrics []types.Metric
	for _, probe := range d.probes {
		output, err := d.execCommand(ctx, probe.Command)
		if err != nil {
			d.logger.Warnf("%s: %v", d.config.Name, err)
			continue
		}
		value, err := probe.Extract(output)
		if err != nil {
			d.logger.Debugf("%s: %v", d.config.Name, err)
			continue
		}
		metrics = append(metrics, types.Metric{Type: probe.Type, Value: value})
	}
	return metrics, nil
}

// CollectMetric runs a single probe. Unlike CollectMetrics, every failure
// surfaces to the caller.
func (d *Driver) CollectMetric(ctx context.Context, metricType types.MetricType) (types.Metric, error) {
	if !d.IsConnected() {
		return types.Metric{}, ErrNotConnected
	}

	probe, ok := findProbe(d.probes, metricType)
	if !ok {
		return types.Metric{}, fmt.Errorf("no probe for metric %q on device type %q", metricType, d.config.Type)
	}

	output, err := d.execCommand(ctx, probe.Command)
	if err != nil {
		return types.Metric{}, err
	}
	value, err := probe.Extract(output)
	if err != nil {
		return types.Metric{}, err
	}
	return types.Metric{Type: probe.Type, Value: value}, nil
}

// HealthCheck runs the cheap version command for the vendor.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if !d.IsConnected() {
		return ErrNotConnected
	}
	_, err := d.execCommand(ctx, versionCommand(d.config.Type))
	return err
}
