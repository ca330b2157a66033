package mapping

import "github.com/edgelink-io/ran-southbound/types"

// Huawei gNodeB (devm/gnodeb YANG) state paths.
// Reference: Huawei wireless NE device management model.
// Supports: BBU5900 with AAU/RRU 5xxx units.
var huaweiMappings = []MetricMapping{
	{
		Path:        "/devm/radio-units/radio-unit/tx-power",
		Type:        types.MetricRadioTxPower,
		Scale:       0.01,
		Description: "Radio TX power (value * 0.01 dBm)",
	},
	{
		Path:        "/devm/radio-units/radio-unit/vswr",
		Type:        types.MetricVSWR,
		Scale:       0.01,
		Description: "Antenna VSWR (value * 0.01)",
	},
	{
		Path:        "/devm/physical-entitys/physical-entity/temperature",
		Type:        types.MetricTemperature,
		Scale:       1,
		Description: "Board temperature (degrees C)",
	},
	{
		Path:        "/devm/system-resources/cpu-usage",
		Type:        types.MetricCPULoad,
		Scale:       1,
		Description: "Main board CPU usage (percent)",
	},
	{
		Path:        "/devm/system-resources/memory-usage",
		Type:        types.MetricMemoryUsage,
		Scale:       1,
		Description: "Main board memory usage (percent)",
	},
	{
		Path:        "/devm/power-supplys/power-supply/voltage",
		Type:        types.MetricPSUVoltage,
		Scale:       0.1,
		Description: "PSU input voltage (value * 0.1 V)",
	},
	{
		Path:        "/devm/power-supplys/power-supply/current",
		Type:        types.MetricPSUCurrent,
		Scale:       0.01,
		Description: "PSU input current (value * 0.01 A)",
	},
	{
		Path:        "/gnodeb/nr-cells/nr-cell/dl-prb-utilization",
		Type:        types.MetricPRBUtilizationDL,
		Scale:       1,
		Description: "Downlink PRB utilization (percent)",
	},
	{
		Path:        "/gnodeb/nr-cells/nr-cell/ul-prb-utilization",
		Type:        types.MetricPRBUtilizationUL,
		Scale:       1,
		Description: "Uplink PRB utilization (percent)",
	},
	{
		Path:        "/gnodeb/nr-cells/nr-cell/active-users",
		Type:        types.MetricActiveUsers,
		Scale:       1,
		Description: "Active users in cell",
	},
	{
		Path:        "/gnodeb/nr-cells/nr-cell/max-users",
		Type:        types.MetricMaxUsers,
		Scale:       1,
		Description: "Configured maximum users",
	},
	{
		Path:        "/transport/ptp/mean-delay",
		Type:        types.MetricTransportLatency,
		Scale:       0.000001,
		Description: "PTP mean path delay (ns, reported in ms)",
	},
}
