package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"golang.org/x/crypto/ssh"

	"github.com/edgelink-io/ran-southbound/types"
)

// defaultPrompt matches the common "hostname#" / "hostname>" shell prompts.
var defaultPrompt = regexp.MustCompile(`(?m)[\w\-\[\]()]+[#>$]\s*$`)

// vendorPrompts holds per-vendor prompt patterns. Huawei VRP uses angle or
// square brackets, Nokia prefixes the CPM slot letter.
var vendorPrompts = map[types.DeviceType]*regexp.Regexp{
	types.DeviceHuawei: regexp.MustCompile(`(?m)(<[\w\-]+>|\[[\w\-~]+\])\s*$`),
	types.DeviceNokia:  regexp.MustCompile(`(?m)\*?[A-D]:[\w\-]+[#>]\s*$`),
}

// pagerDisableCommands stop interactive paging so long outputs arrive whole.
var pagerDisableCommands = map[types.DeviceType]string{
	types.DeviceEricsson: "terminal length 0",
	types.DeviceHuawei:   "screen-length 0 temporary",
	types.DeviceNokia:    "environment no more",
}

// ansiEscape matches CSI sequences some units emit in terminal mode.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// promptFor picks the prompt pattern for a device type.
func promptFor(deviceType types.DeviceType) *regexp.Regexp {
	if re, ok := vendorPrompts[deviceType]; ok {
		return re
	}
	return defaultPrompt
}

// pagerCommand picks the pager-disable command for a device type.
func pagerCommand(deviceType types.DeviceType) string {
	if cmd, ok := pagerDisableCommands[deviceType]; ok {
		return cmd
	}
	return "terminal length 0"
}

// ExpectSession drives an interactive CLI over an SSH PTY via goexpect.
// Commands run one at a time; output is returned with the echo, prompt
// lines, and terminal escapes stripped.
type ExpectSession struct {
	expecter *expect.GExpect
	promptRE *regexp.Regexp
	timeout  time.Duration
	device   types.DeviceType
}

// ExpectSessionConfig holds what NewExpectSession needs.
type ExpectSessionConfig struct {
	Client       *ssh.Client
	DeviceType   types.DeviceType
	Timeout      time.Duration
	CustomPrompt *regexp.Regexp
	DisablePager bool
}

// NewExpectSession spawns the PTY session, waits for the initial prompt and
// optionally disables the pager (best effort).
func NewExpectSession(cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("ssh client is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	promptRE := cfg.CustomPrompt
	if promptRE == nil {
		promptRE = promptFor(cfg.DeviceType)
	}

	exp, _, err := expect.SpawnSSH(cfg.Client, cfg.Timeout,
		expect.Verbose(false),
		expect.CheckDuration(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("spawn expect session: %w", err)
	}

	session := &ExpectSession{
		expecter: exp,
		promptRE: promptRE,
		timeout:  cfg.Timeout,
		device:   cfg.DeviceType,
	}

	if _, _, err := exp.Expect(promptRE, cfg.Timeout); err != nil {
		exp.Close() //nolint:errcheck
		return nil, fmt.Errorf("detect initial prompt: %w", err)
	}

	if cfg.DisablePager {
		_ = session.disablePager()
	}
	return session, nil
}

func (s *ExpectSession) disablePager() error {
	_, err := s.Execute(pagerCommand(s.device))
	return err
}

// Execute sends one command and waits for the next prompt.
func (s *ExpectSession) Execute(command string) (string, error) {
	if s.expecter == nil {
		return "", fmt.Errorf("expect session not initialized")
	}

	if err := s.expecter.Send(command + "\n"); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	output, _, err := s.expecter.Expect(s.promptRE, s.timeout)
	if err != nil {
		return output, fmt.Errorf("no prompt after %q: %w", command, err)
	}
	return s.cleanOutput(output, command), nil
}

// cleanOutput strips terminal escapes, carriage returns, the command echo
// and trailing prompt lines.
func (s *ExpectSession) cleanOutput(output, command string) string {
	output = ansiEscape.ReplaceAllString(output, "")
	output = strings.ReplaceAll(output, "\r", "")

	var cleaned []string
	for i, line := range strings.Split(output, "\n") {
		if i == 0 && strings.Contains(line, command) {
			continue
		}
		if s.promptRE.MatchString(strings.TrimSpace(line)) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// Close ends the PTY session.
func (s *ExpectSession) Close() error {
	if s.expecter != nil {
		return s.expecter.Close()
	}
	return nil
}
