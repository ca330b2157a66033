package cli

import (
	"testing"

	"github.com/edgelink-io/ran-southbound/types"
)

func TestPromptPatterns(t *testing.T) {
	tests := []struct {
		name   string
		device types.DeviceType
		line   string
		match  bool
	}{
		{name: "generic hash", device: types.DeviceGeneric, line: "rbs-42# ", match: true},
		{name: "generic angle", device: types.DeviceGeneric, line: "du-01>", match: true},
		{name: "generic dollar", device: types.DeviceGeneric, line: "baseband$ ", match: true},
		{name: "generic banner text", device: types.DeviceGeneric, line: "Loading configuration...", match: false},
		{name: "huawei user view", device: types.DeviceHuawei, line: "<BTS3900>", match: true},
		{name: "huawei system view", device: types.DeviceHuawei, line: "[BTS3900-radio]", match: true},
		{name: "huawei plain hash", device: types.DeviceHuawei, line: "BTS3900#", match: false},
		{name: "nokia active cpm", device: types.DeviceNokia, line: "A:airscale-1# ", match: true},
		{name: "nokia config mode", device: types.DeviceNokia, line: "*A:airscale-1>", match: true},
		{name: "nokia missing slot", device: types.DeviceNokia, line: "airscale-1#", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := promptFor(tt.device).MatchString(tt.line); got != tt.match {
				t.Errorf("promptFor(%s).MatchString(%q) = %v, want %v", tt.device, tt.line, got, tt.match)
			}
		})
	}
}

func TestPromptForUnknownVendor(t *testing.T) {
	if promptFor(types.DeviceCustom) != defaultPrompt {
		t.Error("unknown vendor should fall back to the default prompt")
	}
}

func TestPagerCommand(t *testing.T) {
	tests := []struct {
		device types.DeviceType
		want   string
	}{
		{types.DeviceHuawei, "screen-length 0 temporary"},
		{types.DeviceNokia, "environment no more"},
		{types.DeviceEricsson, "terminal length 0"},
		{types.DeviceGeneric, "terminal length 0"},
		{types.DeviceCustom, "terminal length 0"},
	}

	for _, tt := range tests {
		if got := pagerCommand(tt.device); got != tt.want {
			t.Errorf("pagerCommand(%s) = %q, want %q", tt.device, got, tt.want)
		}
	}
}

func TestCleanOutput(t *testing.T) {
	session := &ExpectSession{promptRE: promptFor(types.DeviceGeneric)}

	tests := []struct {
		name    string
		output  string
		command string
		want    string
	}{
		{
			name:    "echo and prompt stripped",
			output:  "show version\r\nSW release 21.Q3\r\nru-1# ",
			command: "show version",
			want:    "SW release 21.Q3",
		},
		{
			name:    "ansi escapes stripped",
			output:  "show env\r\n\x1b[2J\x1b[0mTemperature: 47 C\r\nru-1# ",
			command: "show env",
			want:    "Temperature: 47 C",
		},
		{
			name:    "multi line body survives",
			output:  "show radio\r\nPort A: 43.2 dBm\r\nPort B: 42.8 dBm\r\nru-1# ",
			command: "show radio",
			want:    "Port A: 43.2 dBm\nPort B: 42.8 dBm",
		},
		{
			name:    "empty body",
			output:  "screen-length 0 temporary\r\nru-1# ",
			command: "screen-length 0 temporary",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.cleanOutput(tt.output, tt.command); got != tt.want {
				t.Errorf("cleanOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteRequiresSession(t *testing.T) {
	var session ExpectSession
	if _, err := session.Execute("show version"); err == nil {
		t.Error("Execute on an unspawned session should fail")
	}
}

func TestCloseWithoutSession(t *testing.T) {
	var session ExpectSession
	if err := session.Close(); err != nil {
		t.Errorf("Close on an unspawned session = %v, want nil", err)
	}
}
