package snmp

import (
	"regexp"

	"github.com/edgelink-io/ran-southbound/mapping"
	"github.com/edgelink-io/ran-southbound/types"
)

// SNMPInvalidValue is the marker many agents return for an offline module or
// an unreadable sensor.
const SNMPInvalidValue int64 = 2147483647

// Standard MIB-II objects (RFC 1213). Scalar instances carry the .0 suffix.
const (
	OIDSysDescr  = "1.3.6.1.2.1.1.1.0" // System description
	OIDSysUpTime = "1.3.6.1.2.1.1.3.0" // System uptime in hundredths of seconds
	OIDSysName   = "1.3.6.1.2.1.1.5.0" // System name
)

// OIDMapping ties a normalized metric to an SNMP object, together with the
// linear transform for the raw value.
type OIDMapping struct {
	// OID is the object identifier, without a leading dot
	OID string

	// Type is the normalized metric this object feeds
	Type types.MetricType

	// Scale and Offset define the transform value*Scale+Offset
	Scale  float64
	Offset float64

	// Description documents the object and its raw unit
	Description string
}

// Apply runs the linear transform on a raw reading.
func (m OIDMapping) Apply(raw float64) float64 {
	return raw*m.Scale + m.Offset
}

// standardOIDs are MIB-II objects every unit answers regardless of vendor.
// Interface counters read the management interface at ifIndex 1.
var standardOIDs = []OIDMapping{
	{OID: OIDSysUpTime, Type: types.MetricUptime, Scale: 0.01, Description: "sysUpTime, hundredths of a second"},
	{OID: "1.3.6.1.2.1.2.2.1.10.1", Type: types.MetricIfInOctets, Scale: 1, Description: "ifInOctets, management interface"},
	{OID: "1.3.6.1.2.1.2.2.1.16.1", Type: types.MetricIfOutOctets, Scale: 1, Description: "ifOutOctets, management interface"},
}

// Ericsson radio/baseband telemetry OIDs (enterprise 193).
// Supports: Baseband 66xx with the SNMP agent enabled.
var ericssonOIDs = []OIDMapping{
	{OID: "1.3.6.1.4.1.193.183.4.1.3.5.1.2", Type: types.MetricRadioTxPower, Scale: 0.1, Description: "TX power (value * 0.1 dBm)"},
	{OID: "1.3.6.1.4.1.193.183.4.1.3.5.1.3", Type: types.MetricVSWR, Scale: 0.01, Description: "VSWR (value * 0.01)"},
	{OID: "1.3.6.1.4.1.193.183.4.1.3.5.1.4", Type: types.MetricTemperature, Scale: 1, Description: "RU temperature in Celsius"},
	{OID: "1.3.6.1.4.1.193.183.4.1.2.1.1.5", Type: types.MetricCPULoad, Scale: 1, Description: "CPU utilization %"},
	{OID: "1.3.6.1.4.1.193.183.4.1.2.1.1.6", Type: types.MetricMemoryUsage, Scale: 1, Description: "Memory utilization %"},
	{OID: "1.3.6.1.4.1.193.183.4.1.4.2.1.2", Type: types.MetricPSUVoltage, Scale: 0.1, Description: "PSU voltage (value * 0.1 V)"},
	{OID: "1.3.6.1.4.1.193.183.4.1.4.2.1.3", Type: types.MetricPSUCurrent, Scale: 0.1, Description: "PSU current (value * 0.1 A)"},
}

// Huawei radio telemetry OIDs (enterprise 2011).
var huaweiOIDs = []OIDMapping{
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.3.1.2", Type: types.MetricRadioTxPower, Scale: 0.01, Description: "TX power (value * 0.01 dBm)"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.3.1.3", Type: types.MetricVSWR, Scale: 0.01, Description: "VSWR (value * 0.01)"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.2.1.10", Type: types.MetricTemperature, Scale: 1, Description: "Board temperature in Celsius"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.2.1.5", Type: types.MetricCPULoad, Scale: 1, Description: "CPU utilization %"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.2.1.6", Type: types.MetricMemoryUsage, Scale: 1, Description: "Memory utilization %"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.4.1.2", Type: types.MetricPSUVoltage, Scale: 0.1, Description: "PSU voltage (value * 0.1 V)"},
	{OID: "1.3.6.1.4.1.2011.2.299.1.1.4.1.3", Type: types.MetricPSUCurrent, Scale: 0.01, Description: "PSU current (value * 0.01 A)"},
}

// Nokia radio telemetry OIDs (enterprise 637, AirScale family).
var nokiaOIDs = []OIDMapping{
	{OID: "1.3.6.1.4.1.637.80.2.1.3.1.2", Type: types.MetricRadioTxPower, Scale: 0.1, Description: "TX power (value * 0.1 dBm)"},
	{OID: "1.3.6.1.4.1.637.80.2.1.3.1.3", Type: types.MetricVSWR, Scale: 0.1, Description: "VSWR (value * 0.1)"},
	{OID: "1.3.6.1.4.1.637.80.2.1.2.1.4", Type: types.MetricTemperature, Scale: 1, Description: "Module temperature in Celsius"},
	{OID: "1.3.6.1.4.1.637.80.2.1.2.1.5", Type: types.MetricCPULoad, Scale: 1, Description: "CPU utilization %"},
	{OID: "1.3.6.1.4.1.637.80.2.1.2.1.6", Type: types.MetricMemoryUsage, Scale: 1, Description: "Memory utilization %"},
	{OID: "1.3.6.1.4.1.637.80.2.1.4.1.2", Type: types.MetricPSUVoltage, Scale: 0.001, Description: "PSU voltage in millivolts"},
	{OID: "1.3.6.1.4.1.637.80.2.1.4.1.3", Type: types.MetricPSUCurrent, Scale: 0.001, Description: "PSU current in milliamps"},
}

var vendorOIDs = map[types.DeviceType][]OIDMapping{
	types.DeviceEricsson: ericssonOIDs,
	types.DeviceHuawei:   huaweiOIDs,
	types.DeviceNokia:    nokiaOIDs,
}

// oidPattern accepts dotted numeric OIDs, with or without a leading dot.
var oidPattern = regexp.MustCompile(`^\.?\d+(\.\d+)+$`)

// ForDevice returns the OID table for a unit: the standard MIB-II set, then
// the vendor enterprise table, then custom mappings whose Path is a numeric
// OID. Custom entries with unrecognized names or non-OID paths are dropped;
// a zero custom scale is read as 1.
func ForDevice(deviceType types.DeviceType, custom []types.CustomMapping) []OIDMapping {
	preset := vendorOIDs[deviceType]

	oids := make([]OIDMapping, 0, len(standardOIDs)+len(preset)+len(custom))
	oids = append(oids, standardOIDs...)
	oids = append(oids, preset...)

	for _, c := range custom {
		metricType, ok := mapping.TypeForName(c.Name)
		if !ok || !oidPattern.MatchString(c.Path) {
			continue
		}
		scale := c.Scale
		if scale == 0 {
			scale = 1
		}
		oids = append(oids, OIDMapping{
			OID:         c.Path,
			Type:        metricType,
			Scale:       scale,
			Offset:      c.Offset,
			Description: c.Description,
		})
	}

	return oids
}

// findOID returns the most specific mapping for a metric type; the table is
// ordered standard, vendor, custom, so the last match wins.
func findOID(oids []OIDMapping, metric types.MetricType) (OIDMapping, bool) {
	for i := len(oids) - 1; i >= 0; i-- {
		if oids[i].Type == metric {
			return oids[i], true
		}
	}
	return OIDMapping{}, false
}
