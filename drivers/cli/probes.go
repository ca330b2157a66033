package cli

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/edgelink-io/ran-southbound/types"
)

// Probe reads one metric off a show command: run Command, take the first
// capture group of Pattern, then apply value*Scale+Offset.
type Probe struct {
	Command string
	Type    types.MetricType
	Pattern *regexp.Regexp
	Scale   float64
	Offset  float64
}

// Apply runs the linear transform on a raw parsed value.
func (p Probe) Apply(raw float64) float64 {
	return raw*p.Scale + p.Offset
}

// Extract pulls the probe's value out of command output.
func (p Probe) Extract(output string) (float64, error) {
	m := p.Pattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return 0, fmt.Errorf("no %q value in output of %q", p.Type, p.Command)
	}
	raw, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q value %q: %w", p.Type, m[1], err)
	}
	return p.Apply(raw), nil
}

// genericProbes cover the IOS-style show commands most units answer.
var genericProbes = []Probe{
	{
		Command: "show system uptime",
		Type:    types.MetricUptime,
		Pattern: regexp.MustCompile(`(?i)uptime[^\d]*(\d+)\s*seconds`),
		Scale:   1,
	},
	{
		Command: "show environment temperature",
		Type:    types.MetricTemperature,
		Pattern: regexp.MustCompile(`(?i)temperature[^\d-]*(-?\d+(?:\.\d+)?)`),
		Scale:   1,
	},
	{
		Command: "show system cpu",
		Type:    types.MetricCPULoad,
		Pattern: regexp.MustCompile(`(?i)cpu(?:\s+(?:usage|load))?[^\d]*(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
	{
		Command: "show system memory",
		Type:    types.MetricMemoryUsage,
		Pattern: regexp.MustCompile(`(?i)memory(?:\s+usage)?[^\d]*(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
}

// ericssonProbes read radio units over the shell. Power and return loss
// come back in human units already.
var ericssonProbes = []Probe{
	{
		Command: "show system uptime",
		Type:    types.MetricUptime,
		Pattern: regexp.MustCompile(`(?i)uptime[^\d]*(\d+)\s*seconds`),
		Scale:   1,
	},
	{
		Command: "show hw temperature",
		Type:    types.MetricTemperature,
		Pattern: regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*C\b`),
		Scale:   1,
	},
	{
		Command: "show radio txpower",
		Type:    types.MetricRadioTxPower,
		Pattern: regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*dBm`),
		Scale:   1,
	},
	{
		Command: "show radio vswr",
		Type:    types.MetricVSWR,
		Pattern: regexp.MustCompile(`(?i)vswr[^\d]*(\d+(?:\.\d+)?)`),
		Scale:   1,
	},
	{
		Command: "show board cpu",
		Type:    types.MetricCPULoad,
		Pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
}

// huaweiProbes use VRP display commands. VRP prints uptime in mixed units,
// so uptime is not probed here.
var huaweiProbes = []Probe{
	{
		Command: "display cpu-usage",
		Type:    types.MetricCPULoad,
		Pattern: regexp.MustCompile(`(?i)cpu usage[^\d]*(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
	{
		Command: "display memory-usage",
		Type:    types.MetricMemoryUsage,
		Pattern: regexp.MustCompile(`(?i)memory using percentage[^\d]*(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
	{
		Command: "display temperature",
		Type:    types.MetricTemperature,
		Pattern: regexp.MustCompile(`(?i)current[^\d-]*(-?\d+(?:\.\d+)?)`),
		Scale:   1,
	},
}

// nokiaProbes use SROS show commands.
var nokiaProbes = []Probe{
	{
		Command: "show system cpu",
		Type:    types.MetricCPULoad,
		Pattern: regexp.MustCompile(`(?i)busiest core utilization[^\d]*(\d+(?:\.\d+)?)\s*%`),
		Scale:   1,
	},
	{
		Command: "show chassis environment",
		Type:    types.MetricTemperature,
		Pattern: regexp.MustCompile(`(?i)temperature[^\d-]*(-?\d+(?:\.\d+)?)`),
		Scale:   1,
	},
}

var vendorProbes = map[types.DeviceType][]Probe{
	types.DeviceEricsson: ericssonProbes,
	types.DeviceHuawei:   huaweiProbes,
	types.DeviceNokia:    nokiaProbes,
}

// versionCommands pick the health-check command per vendor.
var versionCommands = map[types.DeviceType]string{
	types.DeviceHuawei: "display version",
}

// ProbesForDevice returns the probe table for a device type. Command sets
// differ per vendor, so vendor tables replace the generic one rather than
// extend it.
func ProbesForDevice(deviceType types.DeviceType) []Probe {
	if probes, ok := vendorProbes[deviceType]; ok {
		return probes
	}
	return genericProbes
}

// versionCommand returns the cheap command used for health checks.
func versionCommand(deviceType types.DeviceType) string {
	if cmd, ok := versionCommands[deviceType]; ok {
		return cmd
	}
	return "show version"
}

// findProbe looks a metric type up in a probe table.
func findProbe(probes []Probe, metricType types.MetricType) (Probe, bool) {
	for _, p := range probes {
		if p.Type == metricType {
			return p, true
		}
	}
	return Probe{}, false
}
