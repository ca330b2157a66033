package snmp

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/edgelink-io/ran-southbound/types"
)

func TestNewDriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *types.DeviceConfig
		wantErr string
	}{
		{"nil config", nil, "config is required"},
		{"missing host", &types.DeviceConfig{}, "host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDriver(tt.config, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewDriver() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewDriverDefaults(t *testing.T) {
	config := &types.DeviceConfig{Host: "10.0.0.1"}
	d, err := NewDriver(config, nil)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	if config.Port != 161 {
		t.Errorf("default port = %d, want 161", config.Port)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("default timeout = %s, want 30s", config.Timeout)
	}
	if d.IsConnected() {
		t.Errorf("new driver reports connected")
	}
}

func TestBuildClient(t *testing.T) {
	tests := []struct {
		name          string
		metadata      map[string]string
		wantVersion   gosnmp.SnmpVersion
		wantCommunity string
	}{
		{"defaults", nil, gosnmp.Version2c, "public"},
		{"v1", map[string]string{"snmp_version": "1"}, gosnmp.Version1, "public"},
		{"v2c explicit", map[string]string{"snmp_version": "2c"}, gosnmp.Version2c, "public"},
		{"v3", map[string]string{"snmp_version": "3"}, gosnmp.Version3, "public"},
		{"community", map[string]string{"snmp_community": "radio-ro"}, gosnmp.Version2c, "radio-ro"},
		{"unknown version keeps default", map[string]string{"snmp_version": "4"}, gosnmp.Version2c, "public"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := buildClient(&types.DeviceConfig{
				Host:     "10.0.0.1",
				Port:     161,
				Username: "admin",
				Password: "secret",
				Metadata: tt.metadata,
			})
			if client.Version != tt.wantVersion {
				t.Errorf("version = %v, want %v", client.Version, tt.wantVersion)
			}
			if client.Community != tt.wantCommunity {
				t.Errorf("community = %q, want %q", client.Community, tt.wantCommunity)
			}
			if tt.wantVersion == gosnmp.Version3 {
				if client.SecurityModel != gosnmp.UserSecurityModel || client.MsgFlags != gosnmp.AuthPriv {
					t.Errorf("v3 security model/flags = %v/%v, want USM/AuthPriv", client.SecurityModel, client.MsgFlags)
				}
				usm, ok := client.SecurityParameters.(*gosnmp.UsmSecurityParameters)
				if !ok || usm.UserName != "admin" {
					t.Errorf("v3 security parameters = %#v, want USM with the config username", client.SecurityParameters)
				}
			}
		})
	}
}

func TestBuildClientClampsPort(t *testing.T) {
	client := buildClient(&types.DeviceConfig{Host: "10.0.0.1", Port: 70000})
	if client.Port != 161 {
		t.Errorf("out-of-range port = %d, want 161", client.Port)
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	d, err := NewDriver(&types.DeviceConfig{Host: "10.0.0.1"}, nil)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	ctx := context.Background()
	if _, err := d.CollectMetrics(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CollectMetrics() error = %v, want ErrNotConnected", err)
	}
	if _, err := d.CollectMetric(ctx, types.MetricUptime); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CollectMetric() error = %v, want ErrNotConnected", err)
	}
	if _, err := d.GetSNMP(ctx, OIDSysDescr); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetSNMP() error = %v, want ErrNotConnected", err)
	}
	if _, err := d.WalkSNMP(ctx, "1.3.6.1.2.1.2.2.1.10"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WalkSNMP() error = %v, want ErrNotConnected", err)
	}
	if _, err := d.BulkGetSNMP(ctx, []string{OIDSysDescr}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("BulkGetSNMP() error = %v, want ErrNotConnected", err)
	}
	if err := d.HealthCheck(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() on a disconnected driver error = %v", err)
	}
}

func TestCollectFromResults(t *testing.T) {
	d, err := NewDriver(&types.DeviceConfig{Host: "10.0.0.1", Type: types.DeviceHuawei}, nil)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	chunk := []OIDMapping{
		{OID: "1.3.6.1.4.1.2011.2.299.1.1.3.1.2", Type: types.MetricRadioTxPower, Scale: 0.01},
		{OID: "1.3.6.1.4.1.2011.2.299.1.1.3.1.3", Type: types.MetricVSWR, Scale: 0.01},
		{OID: "1.3.6.1.4.1.2011.2.299.1.1.2.1.10", Type: types.MetricTemperature, Scale: 1},
		{OID: "1.3.6.1.4.1.2011.2.299.1.1.2.1.5", Type: types.MetricCPULoad, Scale: 1},
	}
	// gosnmp reports names with a leading dot.
	results := map[string]interface{}{
		".1.3.6.1.4.1.2011.2.299.1.1.3.1.2":  1250,                 // tx power, applied transform
		".1.3.6.1.4.1.2011.2.299.1.1.3.1.3":  SNMPInvalidValue,     // offline marker, skipped
		".1.3.6.1.4.1.2011.2.299.1.1.2.1.10": []byte("forty-five"), // non-numeric, skipped
		// cpu-load absent entirely
	}

	metrics := d.collectFromResults(results, chunk, nil)
	if len(metrics) != 1 {
		t.Fatalf("collected %d metrics, want 1: %v", len(metrics), metrics)
	}
	if metrics[0].Type != types.MetricRadioTxPower || math.Abs(metrics[0].Value-12.5) > 1e-9 {
		t.Errorf("metric = %+v, want radio_tx_power 12.5", metrics[0])
	}
}

func TestDecodeVariable(t *testing.T) {
	tests := []struct {
		name string
		pdu  gosnmp.SnmpPDU
		want interface{}
	}{
		{"octet string", gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("Baseband 6630")}, "Baseband 6630"},
		{"integer", gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: int(-7)}, int64(-7)},
		{"counter32", gosnmp.SnmpPDU{Type: gosnmp.Counter32, Value: uint(9000)}, uint64(9000)},
		{"counter64", gosnmp.SnmpPDU{Type: gosnmp.Counter64, Value: uint64(1 << 40)}, uint64(1 << 40)},
		{"timeticks", gosnmp.SnmpPDU{Type: gosnmp.TimeTicks, Value: uint32(360000)}, uint64(360000)},
		{"unexpected shape passes through", gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: "odd"}, "odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeVariable(tt.pdu); got != tt.want {
				t.Errorf("decodeVariable() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLookupResult(t *testing.T) {
	tests := []struct {
		name      string
		results   map[string]interface{}
		oid       string
		wantValue interface{}
		wantFound bool
	}{
		{"nil results", nil, "1.3.6.1", nil, false},
		{"result has dot, oid without", map[string]interface{}{".1.3.6.1": 1}, "1.3.6.1", 1, true},
		{"exact match", map[string]interface{}{"1.3.6.1": 2}, "1.3.6.1", 2, true},
		{"oid has dot, result without", map[string]interface{}{"1.3.6.1": 3}, ".1.3.6.1", 3, true},
		{"not found", map[string]interface{}{"1.3.6.1": 4}, "1.3.6.2", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := lookupResult(tt.results, tt.oid)
			if found != tt.wantFound || got != tt.wantValue {
				t.Errorf("lookupResult() = %v, %t, want %v, %t", got, found, tt.wantValue, tt.wantFound)
			}
		})
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   float64
		wantOK bool
	}{
		{"int", int(42), 42, true},
		{"int64 negative", int64(-12), -12, true},
		{"uint", uint(7), 7, true},
		{"uint64", uint64(1 << 40), float64(uint64(1 << 40)), true},
		{"float64", 3.5, 3.5, true},
		{"bytes", []byte("42"), 0, false},
		{"string", "42", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseNumeric(tt.value)
			if ok != tt.wantOK || (ok && math.Abs(got-tt.want) > 1e-9) {
				t.Errorf("parseNumeric(%v) = %v, %t, want %v, %t", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
