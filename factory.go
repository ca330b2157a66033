package southbound

import (
	"fmt"

	"github.com/edgelink-io/ran-southbound/drivers/cli"
	"github.com/edgelink-io/ran-southbound/drivers/gnmi"
	"github.com/edgelink-io/ran-southbound/drivers/mock"
	"github.com/edgelink-io/ran-southbound/drivers/netconf"
	"github.com/edgelink-io/ran-southbound/drivers/snmp"
	"github.com/edgelink-io/ran-southbound/pkg/logger"
)

// CapabilityMatrix defines what each unit family supports
var CapabilityMatrix = map[DeviceType]DeviceCapabilities{
	DeviceGeneric: {
		PrimaryProtocol: ProtocolNETCONF,
		SupportedProtocols: []Protocol{
			ProtocolNETCONF,
			ProtocolSNMP,
			ProtocolGNMI,
			ProtocolCLI,
		},
		TelemetryMethod:   ProtocolNETCONF,
		SupportsStreaming: true,
	},
	DeviceEricsson: {
		PrimaryProtocol: ProtocolNETCONF,
		SupportedProtocols: []Protocol{
			ProtocolNETCONF,
			ProtocolCLI,
			ProtocolSNMP,
		},
		TelemetryMethod:   ProtocolNETCONF,
		SupportsStreaming: false,
	},
	DeviceHuawei: {
		PrimaryProtocol: ProtocolCLI,
		SupportedProtocols: []Protocol{
			ProtocolCLI,
			ProtocolSNMP,
			ProtocolNETCONF, // newer units
		},
		TelemetryMethod:   ProtocolSNMP,
		SupportsStreaming: false,
	},
	DeviceNokia: {
		PrimaryProtocol: ProtocolNETCONF,
		SupportedProtocols: []Protocol{
			ProtocolNETCONF,
			ProtocolGNMI,
			ProtocolSNMP,
			ProtocolCLI,
		},
		TelemetryMethod:   ProtocolGNMI,
		SupportsStreaming: true,
	},
	DeviceCustom: {
		// Custom units carry their own mappings, so any session protocol
		// can serve them.
		PrimaryProtocol: ProtocolNETCONF,
		SupportedProtocols: []Protocol{
			ProtocolNETCONF,
			ProtocolSNMP,
			ProtocolGNMI,
			ProtocolCLI,
		},
		TelemetryMethod:   ProtocolNETCONF,
		SupportsStreaming: true,
	},
	DeviceMock: {
		PrimaryProtocol: ProtocolMock,
		SupportedProtocols: []Protocol{
			ProtocolMock,
			ProtocolNETCONF,
			ProtocolSNMP,
			ProtocolGNMI,
			ProtocolCLI,
		},
		TelemetryMethod:   ProtocolMock,
		SupportsStreaming: false,
	},
}

// DeviceCapabilities defines what protocols and features a unit family supports
type DeviceCapabilities struct {
	PrimaryProtocol    Protocol
	SupportedProtocols []Protocol
	TelemetryMethod    Protocol
	SupportsStreaming  bool
}

// NewCollector creates a southbound collector for a unit family and protocol.
// An empty protocol selects the family's primary protocol.
func NewCollector(deviceType DeviceType, protocol Protocol, config *DeviceConfig, log *logger.Logger) (Collector, error) {
	caps, ok := CapabilityMatrix[deviceType]
	if !ok {
		return nil, fmt.Errorf("unsupported device type: %s", deviceType)
	}

	// An empty protocol means the family's primary one.
	if protocol == "" {
		protocol = caps.PrimaryProtocol
	}

	// Fill empty config fields from the dispatch arguments so driver-side
	// table lookups agree with it
	if config != nil {
		if config.Type == "" {
			config.Type = deviceType
		}
		if config.Protocol == "" {
			config.Protocol = protocol
		}
	}

	// The simulated driver stands in for any unit family
	if deviceType == DeviceMock || protocol == ProtocolMock {
		return mock.NewDriver(config, log)
	}

	supported := false
	for _, p := range caps.SupportedProtocols {
		if p == protocol {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("device type %s does not support protocol %s", deviceType, protocol)
	}

	var collector Collector
	var err error

	switch protocol {
	case ProtocolNETCONF:
		collector, err = netconf.NewDriver(config, log)
	case ProtocolGNMI:
		collector, err = gnmi.NewDriver(config, log)
	case ProtocolCLI:
		collector, err = cli.NewDriver(config, log)
	case ProtocolSNMP:
		collector, err = snmp.NewDriver(config, log)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", protocol, err)
	}

	return collector, nil
}

// NewCollectorFromConfig builds a collector from the device type and protocol
// recorded in the config itself
func NewCollectorFromConfig(config *DeviceConfig, log *logger.Logger) (Collector, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return NewCollector(config.Type, config.Protocol, config, log)
}

// GetSupportedDeviceTypes returns a list of all supported unit families
func GetSupportedDeviceTypes() []DeviceType {
	deviceTypes := make([]DeviceType, 0, len(CapabilityMatrix))
	for t := range CapabilityMatrix {
		deviceTypes = append(deviceTypes, t)
	}
	return deviceTypes
}

// GetDeviceCapabilities returns the capabilities for a unit family
func GetDeviceCapabilities(deviceType DeviceType) (DeviceCapabilities, bool) {
	caps, ok := CapabilityMatrix[deviceType]
	return caps, ok
}
