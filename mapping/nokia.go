package mapping

import "github.com/edgelink-io/ran-southbound/types"

// Nokia AirScale state paths.
// Reference: Nokia AirScale system module state model.
// Supports: AirScale baseband with ASiR/AZQx radio units.
var nokiaMappings = []MetricMapping{
	{
		Path:        "/state/radio-equipment/radio/tx-power",
		Type:        types.MetricRadioTxPower,
		Scale:       0.1,
		Description: "Radio TX power (value * 0.1 dBm)",
	},
	{
		Path:        "/state/radio-equipment/radio/vswr",
		Type:        types.MetricVSWR,
		Scale:       0.1,
		Description: "Antenna VSWR (value * 0.1)",
	},
	{
		Path:        "/state/system/temperature",
		Type:        types.MetricTemperature,
		Scale:       1,
		Description: "System module temperature (degrees C)",
	},
	{
		Path:        "/state/system/cpu-usage",
		Type:        types.MetricCPULoad,
		Scale:       1,
		Description: "System module CPU usage (percent)",
	},
	{
		Path:        "/state/system/memory-usage",
		Type:        types.MetricMemoryUsage,
		Scale:       1,
		Description: "System module memory usage (percent)",
	},
	{
		Path:        "/state/power-supply/voltage",
		Type:        types.MetricPSUVoltage,
		Scale:       0.001,
		Description: "PSU input voltage (millivolts)",
	},
	{
		Path:        "/state/power-supply/current",
		Type:        types.MetricPSUCurrent,
		Scale:       0.001,
		Description: "PSU input current (milliamps)",
	},
	{
		Path:        "/state/cell/dl-prb-utilization",
		Type:        types.MetricPRBUtilizationDL,
		Scale:       1,
		Description: "Downlink PRB utilization (percent)",
	},
	{
		Path:        "/state/cell/ul-prb-utilization",
		Type:        types.MetricPRBUtilizationUL,
		Scale:       1,
		Description: "Uplink PRB utilization (percent)",
	},
	{
		Path:        "/state/cell/active-users",
		Type:        types.MetricActiveUsers,
		Scale:       1,
		Description: "Connected users in cell",
	},
	{
		Path:        "/state/cell/max-users",
		Type:        types.MetricMaxUsers,
		Scale:       1,
		Description: "Configured maximum users",
	},
	{
		Path:        "/state/ptp/mean-path-delay",
		Type:        types.MetricTransportLatency,
		Scale:       0.000001,
		Description: "PTP mean path delay (ns, reported in ms)",
	},
}
