// Package mapping translates vendor data models into the normalized metric
// vocabulary. Each vendor family contributes a preset table of data-model
// paths; a unit's effective table is the generic set plus its vendor preset
// plus any caller-supplied custom mappings, in that order.
package mapping

import (
	"strings"

	"github.com/edgelink-io/ran-southbound/types"
)

// MetricMapping ties a normalized metric to a location in a unit's data
// model, together with the linear transform for the raw reading.
type MetricMapping struct {
	// Path is the data-model location of the leaf
	Path string

	// Type is the normalized metric this leaf feeds
	Type types.MetricType

	// Scale and Offset define the transform value*Scale+Offset
	Scale  float64
	Offset float64

	// Description documents the source leaf and its raw unit
	Description string
}

// Apply runs the linear transform on a raw reading.
func (m MetricMapping) Apply(raw float64) float64 {
	return raw*m.Scale + m.Offset
}

// vendorPresets resolves a device type to its preset table. The set is
// closed: adding a vendor means adding a table file and an entry here.
var vendorPresets = map[types.DeviceType][]MetricMapping{
	types.DeviceEricsson: ericssonMappings,
	types.DeviceHuawei:   huaweiMappings,
	types.DeviceNokia:    nokiaMappings,
}

// metricNames is the fixed name→type lookup for custom mappings.
var metricNames = map[string]types.MetricType{
	"uptime":             types.MetricUptime,
	"software_version":   types.MetricSoftwareVersion,
	"if_in_octets":       types.MetricIfInOctets,
	"if_out_octets":      types.MetricIfOutOctets,
	"temperature":        types.MetricTemperature,
	"radio_tx_power":     types.MetricRadioTxPower,
	"vswr":               types.MetricVSWR,
	"cpu_load":           types.MetricCPULoad,
	"memory_usage":       types.MetricMemoryUsage,
	"psu_voltage":        types.MetricPSUVoltage,
	"psu_current":        types.MetricPSUCurrent,
	"prb_utilization_dl": types.MetricPRBUtilizationDL,
	"prb_utilization_ul": types.MetricPRBUtilizationUL,
	"active_users":       types.MetricActiveUsers,
	"max_users":          types.MetricMaxUsers,
	"transport_latency":  types.MetricTransportLatency,
}

// TypeForName translates a custom-mapping name to a metric type.
func TypeForName(name string) (types.MetricType, bool) {
	t, ok := metricNames[name]
	return t, ok
}

// ForDevice returns the effective mapping table for a unit: the generic set,
// then the vendor preset, then the translated custom mappings. An unknown
// device type contributes no preset. Custom mappings with unrecognized names
// are dropped silently; a zero custom scale is read as 1 so an omitted YAML
// field does not zero out every reading. The result is a fresh slice the
// caller owns.
func ForDevice(deviceType types.DeviceType, custom []types.CustomMapping) []MetricMapping {
	preset := vendorPresets[deviceType]

	mappings := make([]MetricMapping, 0, len(genericMappings)+len(preset)+len(custom))
	mappings = append(mappings, genericMappings...)
	mappings = append(mappings, preset...)

	for _, c := range custom {
		metricType, ok := TypeForName(c.Name)
		if !ok {
			continue
		}
		scale := c.Scale
		if scale == 0 {
			scale = 1
		}
		mappings = append(mappings, MetricMapping{
			Path:        c.Path,
			Type:        metricType,
			Scale:       scale,
			Offset:      c.Offset,
			Description: c.Description,
		})
	}

	return mappings
}

// Find returns the most specific mapping for a metric type. The table is
// ordered generic, vendor, custom, so the last match wins.
func Find(mappings []MetricMapping, metric types.MetricType) (MetricMapping, bool) {
	for i := len(mappings) - 1; i >= 0; i-- {
		if mappings[i].Type == metric {
			return mappings[i], true
		}
	}
	return MetricMapping{}, false
}

// SubtreeKey returns the batching key for a path: its first two non-empty
// segments. Paths with fewer segments key on the full path.
func SubtreeKey(path string) string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		segs = append(segs, s)
		if len(segs) == 2 {
			return "/" + segs[0] + "/" + segs[1]
		}
	}
	return path
}

// SubtreeGroup is a set of mappings sharing one batching subtree.
type SubtreeGroup struct {
	Key      string
	Mappings []MetricMapping
}

// GroupBySubtree batches mappings that live under the same subtree so one
// get can serve all of them. Group order follows first appearance.
func GroupBySubtree(mappings []MetricMapping) []SubtreeGroup {
	var groups []SubtreeGroup
	index := make(map[string]int, len(mappings))

	for _, m := range mappings {
		key := SubtreeKey(m.Path)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SubtreeGroup{Key: key})
		}
		groups[i].Mappings = append(groups[i].Mappings, m)
	}

	return groups
}
