package mapping

import "github.com/edgelink-io/ran-southbound/types"

// Ericsson RadioNode (ECIM) state paths.
// Reference: Ericsson Radio System managed object model.
// Supports: Baseband 66xx with Radio 22xx/44xx units.
var ericssonMappings = []MetricMapping{
	{
		Path:        "/ManagedElement/Equipment/FieldReplaceableUnit/RfPort/txPower",
		Type:        types.MetricRadioTxPower,
		Scale:       0.1,
		Description: "Radio TX power (value * 0.1 dBm)",
	},
	{
		Path:        "/ManagedElement/Equipment/FieldReplaceableUnit/RfPort/vswr",
		Type:        types.MetricVSWR,
		Scale:       0.01,
		Description: "Antenna VSWR (value * 0.01)",
	},
	{
		Path:        "/ManagedElement/Equipment/FieldReplaceableUnit/temperature",
		Type:        types.MetricTemperature,
		Scale:       1,
		Description: "FRU temperature (degrees C)",
	},
	{
		Path:        "/ManagedElement/SystemFunctions/SysM/cpuLoad",
		Type:        types.MetricCPULoad,
		Scale:       1,
		Description: "Baseband CPU load (percent)",
	},
	{
		Path:        "/ManagedElement/SystemFunctions/SysM/memoryUsage",
		Type:        types.MetricMemoryUsage,
		Scale:       1,
		Description: "Baseband memory usage (percent)",
	},
	{
		Path:        "/ManagedElement/Equipment/PowerSupply/voltage",
		Type:        types.MetricPSUVoltage,
		Scale:       0.1,
		Description: "PSU input voltage (value * 0.1 V)",
	},
	{
		Path:        "/ManagedElement/Equipment/PowerSupply/current",
		Type:        types.MetricPSUCurrent,
		Scale:       0.1,
		Description: "PSU input current (value * 0.1 A)",
	},
	{
		Path:        "/ManagedElement/GNBDUFunction/NRCellDU/prbUtilizationDl",
		Type:        types.MetricPRBUtilizationDL,
		Scale:       1,
		Description: "Downlink PRB utilization (percent)",
	},
	{
		Path:        "/ManagedElement/GNBDUFunction/NRCellDU/prbUtilizationUl",
		Type:        types.MetricPRBUtilizationUL,
		Scale:       1,
		Description: "Uplink PRB utilization (percent)",
	},
	{
		Path:        "/ManagedElement/GNBDUFunction/NRCellDU/activeUsers",
		Type:        types.MetricActiveUsers,
		Scale:       1,
		Description: "RRC-connected users in cell",
	},
	{
		Path:        "/ManagedElement/GNBDUFunction/NRCellDU/maxUsers",
		Type:        types.MetricMaxUsers,
		Scale:       1,
		Description: "Licensed maximum connected users",
	},
	{
		Path:        "/ManagedElement/Transport/Ptp/meanPathDelay",
		Type:        types.MetricTransportLatency,
		Scale:       0.000001,
		Description: "PTP mean path delay (ns, reported in ms)",
	},
}
