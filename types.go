package southbound

// Re-export types from the types sub-package so callers can depend on the
// root package alone: southbound.Collector, southbound.DeviceConfig, etc.

import (
	"github.com/edgelink-io/ran-southbound/types"
)

// Type aliases for the root package surface
type (
	Protocol      = types.Protocol
	DeviceType    = types.DeviceType
	MetricType    = types.MetricType
	Metric        = types.Metric
	CustomMapping = types.CustomMapping
	HostKeyMode   = types.HostKeyMode
	DeviceConfig  = types.DeviceConfig
	Collector     = types.Collector
	CLIExecutor   = types.CLIExecutor
	SNMPExecutor  = types.SNMPExecutor
)

// Re-export constants
const (
	ProtocolNETCONF = types.ProtocolNETCONF
	ProtocolSNMP    = types.ProtocolSNMP
	ProtocolGNMI    = types.ProtocolGNMI
	ProtocolCLI     = types.ProtocolCLI
	ProtocolMock    = types.ProtocolMock

	DeviceGeneric  = types.DeviceGeneric
	DeviceEricsson = types.DeviceEricsson
	DeviceHuawei   = types.DeviceHuawei
	DeviceNokia    = types.DeviceNokia
	DeviceCustom   = types.DeviceCustom
	DeviceMock     = types.DeviceMock

	HostKeyIgnore     = types.HostKeyIgnore
	HostKeyKnownHosts = types.HostKeyKnownHosts

	MetricUptime           = types.MetricUptime
	MetricSoftwareVersion  = types.MetricSoftwareVersion
	MetricIfInOctets       = types.MetricIfInOctets
	MetricIfOutOctets      = types.MetricIfOutOctets
	MetricTemperature      = types.MetricTemperature
	MetricRadioTxPower     = types.MetricRadioTxPower
	MetricVSWR             = types.MetricVSWR
	MetricCPULoad          = types.MetricCPULoad
	MetricMemoryUsage      = types.MetricMemoryUsage
	MetricPSUVoltage       = types.MetricPSUVoltage
	MetricPSUCurrent       = types.MetricPSUCurrent
	MetricPRBUtilizationDL = types.MetricPRBUtilizationDL
	MetricPRBUtilizationUL = types.MetricPRBUtilizationUL
	MetricActiveUsers      = types.MetricActiveUsers
	MetricMaxUsers         = types.MetricMaxUsers
	MetricTransportLatency = types.MetricTransportLatency
)
