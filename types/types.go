package types

import (
	"context"
	"time"
)

// Protocol represents the southbound protocol used to reach a unit
type Protocol string

const (
	ProtocolNETCONF Protocol = "netconf"
	ProtocolSNMP    Protocol = "snmp"
	ProtocolGNMI    Protocol = "gnmi"
	ProtocolCLI     Protocol = "cli"
	ProtocolMock    Protocol = "mock"
)

// DeviceType identifies the vendor family of a radio or baseband unit.
// Mapping presets are resolved through pure lookups keyed on these values,
// so supporting a new vendor means extending the tables, not the drivers.
type DeviceType string

const (
	DeviceGeneric  DeviceType = "generic"
	DeviceEricsson DeviceType = "ericsson"
	DeviceHuawei   DeviceType = "huawei"
	DeviceNokia    DeviceType = "nokia"
	DeviceCustom   DeviceType = "custom"
	DeviceMock     DeviceType = "mock" // for testing/simulation
)

// MetricType is the normalized telemetry vocabulary shared by all drivers.
// Vendor data models differ in paths and OIDs; collection always emits these.
type MetricType string

const (
	MetricUptime           MetricType = "uptime"
	MetricSoftwareVersion  MetricType = "software_version"
	MetricIfInOctets       MetricType = "if_in_octets"
	MetricIfOutOctets      MetricType = "if_out_octets"
	MetricTemperature      MetricType = "temperature"
	MetricRadioTxPower     MetricType = "radio_tx_power"
	MetricVSWR             MetricType = "vswr"
	MetricCPULoad          MetricType = "cpu_load"
	MetricMemoryUsage      MetricType = "memory_usage"
	MetricPSUVoltage       MetricType = "psu_voltage"
	MetricPSUCurrent       MetricType = "psu_current"
	MetricPRBUtilizationDL MetricType = "prb_utilization_dl"
	MetricPRBUtilizationUL MetricType = "prb_utilization_ul"
	MetricActiveUsers      MetricType = "active_users"
	MetricMaxUsers         MetricType = "max_users"
	MetricTransportLatency MetricType = "transport_latency"
)

// Metric is a single normalized reading handed to the upstream delivery client
type Metric struct {
	// Type is the normalized metric type
	Type MetricType

	// Value is the reading after the mapping transform has been applied
	Value float64
}

// CustomMapping is a caller-supplied data-model location for a metric.
// Name is translated to a MetricType through a fixed lookup; mappings with
// unrecognized names are dropped silently.
type CustomMapping struct {
	// Name is the metric name (e.g. "radio_tx_power")
	Name string

	// Path is the data-model location of the leaf
	Path string

	// Scale and Offset define the linear transform value*Scale+Offset
	Scale  float64
	Offset float64

	// Description documents the mapping
	Description string
}

// HostKeyMode selects the SSH host-key verification policy
type HostKeyMode string

const (
	// HostKeyIgnore accepts any host key. Insecure; drivers log a warning.
	HostKeyIgnore HostKeyMode = "ignore"

	// HostKeyKnownHosts verifies against an OpenSSH known_hosts file
	HostKeyKnownHosts HostKeyMode = "known-hosts"
)

// Configuration datastores addressable by get-config
const (
	SourceRunning   = "running"
	SourceCandidate = "candidate"
	SourceStartup   = "startup"
)

// DeviceConfig contains the configuration for one managed unit.
// It is built by the caller and passed to a driver constructor.
type DeviceConfig struct {
	// Name is a unique identifier for this unit
	Name string

	// Type is the vendor family
	Type DeviceType

	// Protocol is the management protocol
	Protocol Protocol

	// Host is the management IP/hostname
	Host string

	// Port is the management port (if not the protocol default)
	Port int

	// Username for authentication
	Username string

	// Password for authentication (optional when a private key is set)
	Password string

	// PrivateKeyPath points to a PEM private key for SSH auth (optional)
	PrivateKeyPath string

	// HostKeyVerify selects the host-key policy. Empty means known-hosts.
	HostKeyVerify HostKeyMode

	// KnownHostsPath overrides the default ~/.ssh/known_hosts location
	KnownHostsPath string

	// Timeout bounds connect, session setup and per-request reply waits
	Timeout time.Duration

	// Capabilities overrides the advertised NETCONF capability set
	Capabilities []string

	// Source is the datastore addressed by get-config (default running)
	Source string

	// CustomMappings extends the built-in mapping tables
	CustomMappings []CustomMapping

	// Metadata contains protocol-specific settings (SNMP community etc.)
	Metadata map[string]string
}

// Collector is the interface all southbound drivers implement.
// It abstracts the protocol-specific details (NETCONF, SNMP, gNMI, CLI).
type Collector interface {
	// Connect establishes a session with the unit
	Connect(ctx context.Context) error

	// Close tears the session down. Safe to call repeatedly.
	Close() error

	// IsConnected returns true if a session is established
	IsConnected() bool

	// CollectMetrics gathers every metric the unit's mapping table covers.
	// A failure against part of the data tree is non-fatal; metrics from
	// the remaining subtrees are still returned.
	CollectMetrics(ctx context.Context) ([]Metric, error)

	// CollectMetric gathers a single metric and fails if it cannot
	CollectMetric(ctx context.Context, metric MetricType) (Metric, error)

	// HealthCheck verifies the session is still usable
	HealthCheck(ctx context.Context) error
}

// CLIExecutor is an optional interface for drivers that expose raw CLI
// execution for diagnostics beyond the normalized metric set
type CLIExecutor interface {
	// ExecCommand executes a CLI command and returns the output
	ExecCommand(ctx context.Context, command string) (string, error)

	// ExecCommands executes multiple CLI commands sequentially
	ExecCommands(ctx context.Context, commands []string) ([]string, error)
}

// SNMPExecutor is an optional interface for drivers that support raw SNMP
// queries alongside normalized collection
type SNMPExecutor interface {
	// GetSNMP retrieves a single SNMP value by OID
	GetSNMP(ctx context.Context, oid string) (interface{}, error)

	// WalkSNMP performs an SNMP walk on an OID subtree
	WalkSNMP(ctx context.Context, oid string) (map[string]interface{}, error)

	// BulkGetSNMP retrieves multiple OIDs in one request
	BulkGetSNMP(ctx context.Context, oids []string) (map[string]interface{}, error)
}
