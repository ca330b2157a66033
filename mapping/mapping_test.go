package mapping

import (
	"testing"

	"github.com/edgelink-io/ran-southbound/types"
)

func TestApplyTransform(t *testing.T) {
	tests := []struct {
		name    string
		mapping MetricMapping
		raw     float64
		want    float64
	}{
		{
			name:    "scale only",
			mapping: MetricMapping{Scale: 0.1},
			raw:     250,
			want:    25.0,
		},
		{
			name:    "scale and offset",
			mapping: MetricMapping{Scale: 0.01, Offset: -100},
			raw:     12500,
			want:    25.0,
		},
		{
			name:    "identity",
			mapping: MetricMapping{Scale: 1},
			raw:     42,
			want:    42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mapping.Apply(tt.raw); got != tt.want {
				t.Errorf("Apply(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForDeviceUnknownType(t *testing.T) {
	got := ForDevice("generic-vendor-x", nil)
	if len(got) != len(genericMappings) {
		t.Fatalf("ForDevice(unknown) returned %d mappings, want generic set of %d",
			len(got), len(genericMappings))
	}
	for i, m := range got {
		if m != genericMappings[i] {
			t.Errorf("mapping #%d = %+v, want %+v", i, m, genericMappings[i])
		}
	}
}

func TestForDeviceKnownVendor(t *testing.T) {
	tests := []struct {
		name   string
		device types.DeviceType
		preset []MetricMapping
	}{
		{"ericsson", types.DeviceEricsson, ericssonMappings},
		{"huawei", types.DeviceHuawei, huaweiMappings},
		{"nokia", types.DeviceNokia, nokiaMappings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForDevice(tt.device, nil)
			want := len(genericMappings) + len(tt.preset)
			if len(got) != want {
				t.Fatalf("ForDevice(%s) returned %d mappings, want %d", tt.device, len(got), want)
			}
			if _, ok := Find(got, types.MetricRadioTxPower); !ok {
				t.Errorf("ForDevice(%s) has no radio TX power mapping", tt.device)
			}
		})
	}
}

func TestForDeviceCustomMappings(t *testing.T) {
	custom := []types.CustomMapping{
		{Name: "radio_tx_power", Path: "/custom/radio/power", Scale: 2, Offset: 1},
		{Name: "not_a_metric", Path: "/custom/bogus"},
	}

	got := ForDevice(types.DeviceCustom, custom)
	want := len(genericMappings) + 1 // the unrecognized name is dropped
	if len(got) != want {
		t.Fatalf("ForDevice(custom) returned %d mappings, want %d", len(got), want)
	}

	last := got[len(got)-1]
	if last.Path != "/custom/radio/power" || last.Type != types.MetricRadioTxPower {
		t.Errorf("last mapping = %+v, want the custom radio TX power entry", last)
	}
	if last.Scale != 2 || last.Offset != 1 {
		t.Errorf("custom transform = (%v, %v), want (2, 1)", last.Scale, last.Offset)
	}
}

func TestForDeviceCustomZeroScale(t *testing.T) {
	got := ForDevice(types.DeviceGeneric, []types.CustomMapping{
		{Name: "uptime", Path: "/custom/uptime"},
	})

	last := got[len(got)-1]
	if last.Scale != 1 {
		t.Errorf("omitted custom scale = %v, want 1", last.Scale)
	}
}

func TestFindPrefersMostSpecific(t *testing.T) {
	table := ForDevice(types.DeviceHuawei, []types.CustomMapping{
		{Name: "temperature", Path: "/site/sensors/outdoor", Scale: 0.5},
	})

	m, ok := Find(table, types.MetricTemperature)
	if !ok {
		t.Fatal("Find(temperature) found nothing")
	}
	if m.Path != "/site/sensors/outdoor" {
		t.Errorf("Find(temperature) path = %q, want the custom override", m.Path)
	}

	m, ok = Find(table, types.MetricRadioTxPower)
	if !ok {
		t.Fatal("Find(radio TX power) found nothing")
	}
	if m.Path != "/devm/radio-units/radio-unit/tx-power" {
		t.Errorf("Find(radio TX power) path = %q, want the vendor preset", m.Path)
	}
}

func TestFindMissing(t *testing.T) {
	if _, ok := Find(genericMappings, types.MetricVSWR); ok {
		t.Error("Find(vswr) in the generic set succeeded, want miss")
	}
}

func TestTypeForName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   types.MetricType
		wantOK bool
	}{
		{"known uptime", "uptime", types.MetricUptime, true},
		{"known vswr", "vswr", types.MetricVSWR, true},
		{"known prb dl", "prb_utilization_dl", types.MetricPRBUtilizationDL, true},
		{"unknown", "rx_power", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TypeForName(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("TypeForName(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("TypeForName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubtreeKey(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"three segments", "/a/b/c", "/a/b"},
		{"two segments", "/a/b", "/a/b"},
		{"one segment keeps full path", "/a", "/a"},
		{"no leading slash", "a/b/c", "/a/b"},
		{"double slash skipped", "//a/b/c", "/a/b"},
		{"vendor path", "/ManagedElement/Equipment/FieldReplaceableUnit/RfPort/txPower", "/ManagedElement/Equipment"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubtreeKey(tt.path); got != tt.want {
				t.Errorf("SubtreeKey(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGroupBySubtree(t *testing.T) {
	mappings := []MetricMapping{
		{Path: "/a/b/c", Type: types.MetricUptime, Scale: 1},
		{Path: "/x/y", Type: types.MetricCPULoad, Scale: 1},
		{Path: "/a/b/d", Type: types.MetricTemperature, Scale: 1},
	}

	groups := GroupBySubtree(mappings)
	if len(groups) != 2 {
		t.Fatalf("GroupBySubtree() returned %d groups, want 2", len(groups))
	}
	if groups[0].Key != "/a/b" || len(groups[0].Mappings) != 2 {
		t.Errorf("group 0 = %q with %d mappings, want /a/b with 2",
			groups[0].Key, len(groups[0].Mappings))
	}
	if groups[1].Key != "/x/y" || len(groups[1].Mappings) != 1 {
		t.Errorf("group 1 = %q with %d mappings, want /x/y with 1",
			groups[1].Key, len(groups[1].Mappings))
	}
	if groups[0].Mappings[1].Type != types.MetricTemperature {
		t.Errorf("group 0 second mapping = %q, want temperature", groups[0].Mappings[1].Type)
	}
}

func TestPresetTablesWellFormed(t *testing.T) {
	tables := map[string][]MetricMapping{
		"generic":  genericMappings,
		"ericsson": ericssonMappings,
		"huawei":   huaweiMappings,
		"nokia":    nokiaMappings,
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			for _, m := range table {
				if m.Path == "" {
					t.Errorf("mapping for %s has an empty path", m.Type)
				}
				if m.Scale == 0 {
					t.Errorf("mapping %s has zero scale", m.Path)
				}
				if _, ok := TypeForName(string(m.Type)); !ok {
					t.Errorf("mapping %s uses unregistered type %q", m.Path, m.Type)
				}
			}
		})
	}
}
