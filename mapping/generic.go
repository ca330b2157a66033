package mapping

import "github.com/edgelink-io/ran-southbound/types"

// Generic state paths from the standard IETF models (ietf-system,
// ietf-interfaces, ietf-hardware). Most units expose these regardless of
// vendor, so they form the floor of every mapping table.
var genericMappings = []MetricMapping{
	{
		Path:        "/system-state/platform/uptime",
		Type:        types.MetricUptime,
		Scale:       1,
		Description: "System uptime (seconds)",
	},
	{
		Path:        "/system-state/platform/os-version",
		Type:        types.MetricSoftwareVersion,
		Scale:       1,
		Description: "Software version string",
	},
	{
		Path:        "/interfaces-state/interface/statistics/in-octets",
		Type:        types.MetricIfInOctets,
		Scale:       1,
		Description: "Interface ingress octet counter",
	},
	{
		Path:        "/interfaces-state/interface/statistics/out-octets",
		Type:        types.MetricIfOutOctets,
		Scale:       1,
		Description: "Interface egress octet counter",
	},
	{
		Path:        "/hardware-state/component/sensor-data/value",
		Type:        types.MetricTemperature,
		Scale:       0.1,
		Description: "Hardware sensor reading (tenths of a degree C)",
	},
}
