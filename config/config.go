// Package config loads the station file: which units to collect from, over
// which protocol, and how often.
//
// File locations (priority order):
//  1. $RAN_SOUTHBOUND_CONFIG
//  2. ./ran-southbound.yaml
//  3. $XDG_CONFIG_HOME/ran-southbound/config.yaml
//  4. ~/.config/ran-southbound/config.yaml
//  5. /etc/ran-southbound/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgelink-io/ran-southbound/types"
)

// Config is the root of a station file.
type Config struct {
	Station    StationConfig    `yaml:"station"`
	Collection CollectionConfig `yaml:"collection"`
	Devices    []DeviceEntry    `yaml:"devices"`
}

// StationConfig identifies the site this collector runs at.
type StationConfig struct {
	Name string `yaml:"name"`
	Site string `yaml:"site,omitempty"`
}

// CollectionConfig holds the polling parameters shared by all units.
type CollectionConfig struct {
	Interval    Duration `yaml:"interval,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

// DeviceEntry describes one unit in the station file.
type DeviceEntry struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type,omitempty"`
	Protocol       string            `yaml:"protocol"`
	Host           string            `yaml:"host,omitempty"`
	Port           int               `yaml:"port,omitempty"`
	Username       string            `yaml:"username,omitempty"`
	Password       string            `yaml:"password,omitempty"`
	PrivateKeyPath string            `yaml:"private_key_path,omitempty"`
	HostKeyVerify  string            `yaml:"host_key_verify,omitempty"`
	KnownHostsPath string            `yaml:"known_hosts_path,omitempty"`
	Timeout        Duration          `yaml:"timeout,omitempty"`
	Capabilities   []string          `yaml:"capabilities,omitempty"`
	Source         string            `yaml:"source,omitempty"`
	Mappings       []MappingEntry    `yaml:"mappings,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty"`
}

// MappingEntry is a custom metric mapping in the station file.
type MappingEntry struct {
	Name        string  `yaml:"name"`
	Path        string  `yaml:"path"`
	Scale       float64 `yaml:"scale,omitempty"`
	Offset      float64 `yaml:"offset,omitempty"`
	Description string  `yaml:"description,omitempty"`
}

// Duration wraps time.Duration so station files can say "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load finds and loads the station file, or returns defaults if none found.
// The second return value is the path used, empty when defaults were served.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadFromPath loads a station file from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to path. Station files carry credentials, so the
// file is written owner-only.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultConfig returns a usable empty station.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values.
func (c *Config) applyDefaults() {
	if c.Collection.Interval == 0 {
		c.Collection.Interval = Duration(30 * time.Second)
	}
	if c.Collection.Timeout == 0 {
		c.Collection.Timeout = Duration(30 * time.Second)
	}
	if c.Collection.Concurrency == 0 {
		c.Collection.Concurrency = 4
	}
	for i := range c.Devices {
		if c.Devices[i].Type == "" {
			c.Devices[i].Type = string(types.DeviceGeneric)
		}
		if c.Devices[i].Timeout == 0 {
			c.Devices[i].Timeout = c.Collection.Timeout
		}
	}
}

// Validate checks the structural rules a station file must satisfy. Whether
// a protocol suits a device type is decided at collector construction.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, dev := range c.Devices {
		if dev.Name == "" {
			return fmt.Errorf("device %d: name is required", i)
		}
		if seen[dev.Name] {
			return fmt.Errorf("device %q: duplicate name", dev.Name)
		}
		seen[dev.Name] = true

		if dev.Protocol == "" {
			return fmt.Errorf("device %q: protocol is required", dev.Name)
		}
		if dev.Host == "" && types.Protocol(dev.Protocol) != types.ProtocolMock {
			return fmt.Errorf("device %q: host is required", dev.Name)
		}
		for _, m := range dev.Mappings {
			if m.Name == "" || m.Path == "" {
				return fmt.Errorf("device %q: mappings need both name and path", dev.Name)
			}
		}
	}
	return nil
}

// DeviceConfigs converts the station entries into driver configs.
func (c *Config) DeviceConfigs() []*types.DeviceConfig {
	configs := make([]*types.DeviceConfig, 0, len(c.Devices))
	for _, dev := range c.Devices {
		configs = append(configs, dev.deviceConfig())
	}
	return configs
}

func (e DeviceEntry) deviceConfig() *types.DeviceConfig {
	var custom []types.CustomMapping
	for _, m := range e.Mappings {
		custom = append(custom, types.CustomMapping{
			Name:        m.Name,
			Path:        m.Path,
			Scale:       m.Scale,
			Offset:      m.Offset,
			Description: m.Description,
		})
	}

	return &types.DeviceConfig{
		Name:           e.Name,
		Type:           types.DeviceType(e.Type),
		Protocol:       types.Protocol(e.Protocol),
		Host:           e.Host,
		Port:           e.Port,
		Username:       e.Username,
		Password:       e.Password,
		PrivateKeyPath: e.PrivateKeyPath,
		HostKeyVerify:  types.HostKeyMode(e.HostKeyVerify),
		KnownHostsPath: e.KnownHostsPath,
		Timeout:        e.Timeout.Duration(),
		Capabilities:   e.Capabilities,
		Source:         e.Source,
		CustomMappings: custom,
		Metadata:       e.Metadata,
	}
}
