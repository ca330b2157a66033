package gnmi

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"

	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestDriver(t *testing.T, config *types.DeviceConfig) *Driver {
	t.Helper()
	if config == nil {
		config = &types.DeviceConfig{
			Name: "ru-lab-1",
			Type: types.DeviceGeneric,
			Host: "127.0.0.1",
		}
	}
	d, err := NewDriver(config, logger.NewTest(t))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func TestNewDriverValidation(t *testing.T) {
	if _, err := NewDriver(nil, nil); err == nil {
		t.Error("NewDriver(nil) should fail")
	}
	if _, err := NewDriver(&types.DeviceConfig{Name: "ru-1"}, nil); err == nil {
		t.Error("NewDriver without host should fail")
	}
}

func TestNewDriverDefaults(t *testing.T) {
	config := &types.DeviceConfig{Name: "ru-1", Host: "10.0.0.1"}
	d := newTestDriver(t, config)

	if config.Port != 9339 {
		t.Errorf("default port = %d, want 9339", config.Port)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", config.Timeout)
	}
	if len(d.mappings) == 0 {
		t.Error("driver should carry the generic mapping table")
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		elems int
		check func(t *testing.T, p *gnmipb.Path)
	}{
		{name: "empty", path: "", elems: 0},
		{name: "root", path: "/", elems: 0},
		{
			name:  "plain",
			path:  "/system/state/hostname",
			elems: 3,
			check: func(t *testing.T, p *gnmipb.Path) {
				if p.Elem[2].Name != "hostname" {
					t.Errorf("leaf = %q, want %q", p.Elem[2].Name, "hostname")
				}
			},
		},
		{
			name:  "no leading slash",
			path:  "system/state",
			elems: 2,
		},
		{
			name:  "single key",
			path:  "/interfaces/interface[name=eth0]/state",
			elems: 3,
			check: func(t *testing.T, p *gnmipb.Path) {
				if got := p.Elem[1].Key["name"]; got != "eth0" {
					t.Errorf("key name = %q, want %q", got, "eth0")
				}
			},
		},
		{
			name:  "multiple keys",
			path:  "/net/route[prefix=10.0.0.0][len=8]/state",
			elems: 3,
			check: func(t *testing.T, p *gnmipb.Path) {
				if got := p.Elem[1].Key["prefix"]; got != "10.0.0.0" {
					t.Errorf("key prefix = %q, want %q", got, "10.0.0.0")
				}
				if got := p.Elem[1].Key["len"]; got != "8" {
					t.Errorf("key len = %q, want %q", got, "8")
				}
			},
		},
		{
			name:  "quoted key value",
			path:  `/interfaces/interface[name="lo0"]/state`,
			elems: 3,
			check: func(t *testing.T, p *gnmipb.Path) {
				if got := p.Elem[1].Key["name"]; got != "lo0" {
					t.Errorf("key name = %q, want %q", got, "lo0")
				}
			},
		},
		{
			name:  "slash inside key",
			path:  "/interfaces/interface[name=eth0/1]/state",
			elems: 3,
			check: func(t *testing.T, p *gnmipb.Path) {
				if got := p.Elem[1].Key["name"]; got != "eth0/1" {
					t.Errorf("key name = %q, want %q", got, "eth0/1")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePath(tt.path)
			if len(p.Elem) != tt.elems {
				t.Fatalf("ParsePath(%q) has %d elems, want %d", tt.path, len(p.Elem), tt.elems)
			}
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestPathToString(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "plain", path: "/system/state/hostname"},
		{name: "keyed", path: "/interfaces/interface[name=eth0]/state/counters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathToString(ParsePath(tt.path)); got != tt.path {
				t.Errorf("round trip = %q, want %q", got, tt.path)
			}
		})
	}

	if got := PathToString(nil); got != "" {
		t.Errorf("PathToString(nil) = %q, want empty", got)
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/interfaces/interface[name=eth0]/state/counters/in-octets", "/interfaces/interface/state/counters/in-octets"},
		{"/radio/ports/port[id=1]/txPower", "/radio/ports/port/txPower"},
		{"/system/state", "/system/state"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := canonicalPath(tt.path); got != tt.want {
			t.Errorf("canonicalPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDecodeTypedValue(t *testing.T) {
	tests := []struct {
		name string
		tv   *gnmipb.TypedValue
		want interface{}
	}{
		{name: "nil", tv: nil, want: nil},
		{
			name: "string",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_StringVal{StringVal: "AIR 6488"}},
			want: "AIR 6488",
		},
		{
			name: "int",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_IntVal{IntVal: -40}},
			want: int64(-40),
		},
		{
			name: "uint",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_UintVal{UintVal: 123456}},
			want: uint64(123456),
		},
		{
			name: "bool",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_BoolVal{BoolVal: true}},
			want: true,
		},
		{
			name: "double",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_DoubleVal{DoubleVal: 36.6}},
			want: 36.6,
		},
		{
			name: "decimal",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_DecimalVal{DecimalVal: &gnmipb.Decimal64{Digits: 1234, Precision: 2}}}, //nolint:staticcheck
			want: 12.34,
		},
		{
			name: "json object",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonIetfVal{JsonIetfVal: []byte(`{"value":42}`)}},
			want: map[string]interface{}{"value": float64(42)},
		},
		{
			name: "json scalar",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonVal{JsonVal: []byte(`47.5`)}},
			want: 47.5,
		},
		{
			name: "undecodable json",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonVal{JsonVal: []byte(`{broken`)}},
			want: "{broken",
		},
		{
			name: "ascii",
			tv:   &gnmipb.TypedValue{Value: &gnmipb.TypedValue_AsciiVal{AsciiVal: "up"}},
			want: "up",
		},
		{
			name: "leaflist",
			tv: &gnmipb.TypedValue{Value: &gnmipb.TypedValue_LeaflistVal{LeaflistVal: &gnmipb.ScalarArray{
				Element: []*gnmipb.TypedValue{
					{Value: &gnmipb.TypedValue_StringVal{StringVal: "a"}},
					{Value: &gnmipb.TypedValue_IntVal{IntVal: 2}},
				},
			}}},
			want: []interface{}{"a", int64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeTypedValue(tt.tv)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeTypedValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
		ok    bool
	}{
		{name: "int64", value: int64(-12), want: -12, ok: true},
		{name: "uint64", value: uint64(400), want: 400, ok: true},
		{name: "float32", value: float32(1.5), want: 1.5, ok: true},
		{name: "float64", value: 36.6, want: 36.6, ok: true},
		{name: "numeric string", value: " 47.5 ", want: 47.5, ok: true},
		{name: "text string", value: "on-air", ok: false},
		{name: "bool", value: true, ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat64(tt.value)
			if ok != tt.ok {
				t.Fatalf("toFloat64(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("toFloat64(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTLSFromMetadata(t *testing.T) {
	tests := []struct {
		name       string
		md         map[string]string
		enabled    bool
		skipVerify bool
	}{
		{name: "nil metadata"},
		{name: "plaintext", md: map[string]string{}},
		{name: "tls", md: map[string]string{"gnmi_tls": "true"}, enabled: true},
		{
			name:       "tls skip verify",
			md:         map[string]string{"gnmi_tls": "true", "gnmi_tls_skip_verify": "true"},
			enabled:    true,
			skipVerify: true,
		},
		{name: "skip verify without tls", md: map[string]string{"gnmi_tls_skip_verify": "true"}, skipVerify: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled, skipVerify := tlsFromMetadata(tt.md)
			if enabled != tt.enabled || skipVerify != tt.skipVerify {
				t.Errorf("tlsFromMetadata() = (%v, %v), want (%v, %v)",
					enabled, skipVerify, tt.enabled, tt.skipVerify)
			}
		})
	}
}

func TestLookupPath(t *testing.T) {
	results := map[string]interface{}{
		"/interfaces/interface[name=eth0]/state/counters/in-octets": uint64(123456),
		"/components/component[name=rru-0]/radio/ports/port[id=1]/txPower": int64(125),
	}

	tests := []struct {
		name string
		path string
		want interface{}
		ok   bool
	}{
		{
			name: "keys stripped",
			path: "/interfaces/interface/state/counters/in-octets",
			want: uint64(123456),
			ok:   true,
		},
		{
			name: "server prefix matched by suffix",
			path: "/radio/ports/port/txPower",
			want: int64(125),
			ok:   true,
		},
		{name: "miss", path: "/system/state/boot-time", ok: false},
		{name: "empty", path: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookupPath(results, tt.path)
			if ok != tt.ok {
				t.Fatalf("lookupPath(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lookupPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	d := newTestDriver(t, nil)
	ctx := context.Background()

	if _, err := d.Get(ctx, []string{"/system/state"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get error = %v, want ErrNotConnected", err)
	}
	if _, err := d.Capabilities(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Capabilities error = %v, want ErrNotConnected", err)
	}
	if _, err := d.CollectMetrics(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CollectMetrics error = %v, want ErrNotConnected", err)
	}
	if _, err := d.CollectMetric(ctx, types.MetricUptime); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CollectMetric error = %v, want ErrNotConnected", err)
	}
	if err := d.HealthCheck(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck error = %v, want ErrNotConnected", err)
	}
	if _, err := d.Subscribe(ctx, &SubscriptionConfig{Paths: []string{"/system/state"}}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe error = %v, want ErrNotConnected", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close on disconnected driver = %v, want nil", err)
	}
	if d.IsConnected() {
		t.Error("IsConnected should be false")
	}
}

func TestBuildSubscribeRequest(t *testing.T) {
	tests := []struct {
		name   string
		config *SubscriptionConfig
		check  func(t *testing.T, list *gnmipb.SubscriptionList)
	}{
		{
			name: "sampled",
			config: &SubscriptionConfig{
				Paths:          []string{"/system/state", "/interfaces"},
				Mode:           SubscriptionModeSample,
				SampleInterval: 10 * time.Second,
			},
			check: func(t *testing.T, list *gnmipb.SubscriptionList) {
				if len(list.Subscription) != 2 {
					t.Fatalf("got %d subscriptions, want 2", len(list.Subscription))
				}
				sub := list.Subscription[0]
				if sub.Mode != gnmipb.SubscriptionMode_SAMPLE {
					t.Errorf("mode = %v, want SAMPLE", sub.Mode)
				}
				if sub.SampleInterval != uint64((10 * time.Second).Nanoseconds()) {
					t.Errorf("sample interval = %d ns", sub.SampleInterval)
				}
			},
		},
		{
			name: "on change with heartbeat",
			config: &SubscriptionConfig{
				Paths:             []string{"/system/alarms"},
				Mode:              SubscriptionModeOnChange,
				HeartbeatInterval: time.Minute,
			},
			check: func(t *testing.T, list *gnmipb.SubscriptionList) {
				sub := list.Subscription[0]
				if sub.Mode != gnmipb.SubscriptionMode_ON_CHANGE {
					t.Errorf("mode = %v, want ON_CHANGE", sub.Mode)
				}
				if sub.HeartbeatInterval != uint64(time.Minute.Nanoseconds()) {
					t.Errorf("heartbeat interval = %d ns", sub.HeartbeatInterval)
				}
			},
		},
		{
			name: "target defined",
			config: &SubscriptionConfig{
				Paths: []string{"/system/state"},
				Mode:  SubscriptionModeTargetDefined,
			},
			check: func(t *testing.T, list *gnmipb.SubscriptionList) {
				if got := list.Subscription[0].Mode; got != gnmipb.SubscriptionMode_TARGET_DEFINED {
					t.Errorf("mode = %v, want TARGET_DEFINED", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := buildSubscribeRequest(tt.config)
			list := req.GetSubscribe()
			if list == nil {
				t.Fatal("request carries no subscription list")
			}
			if list.Mode != gnmipb.SubscriptionList_STREAM {
				t.Errorf("list mode = %v, want STREAM", list.Mode)
			}
			if list.Encoding != gnmipb.Encoding_JSON_IETF {
				t.Errorf("encoding = %v, want JSON_IETF", list.Encoding)
			}
			tt.check(t, list)
		})
	}
}

func TestParseNotification(t *testing.T) {
	now := time.Now()
	notif := &gnmipb.Notification{
		Timestamp: now.UnixNano(),
		Prefix:    ParsePath("/interfaces"),
		Update: []*gnmipb.Update{
			{
				Path: ParsePath("interface[name=eth0]/state/counters/in-octets"),
				Val:  &gnmipb.TypedValue{Value: &gnmipb.TypedValue_UintVal{UintVal: 9000}},
			},
		},
		Delete: []*gnmipb.Path{ParsePath("interface[name=eth1]")},
	}

	updates := parseNotification(notif)
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}

	first := updates[0]
	if first.Path != "/interfaces/interface[name=eth0]/state/counters/in-octets" {
		t.Errorf("update path = %q", first.Path)
	}
	if !reflect.DeepEqual(first.Value, uint64(9000)) {
		t.Errorf("update value = %v, want 9000", first.Value)
	}
	if first.Deleted {
		t.Error("update should not be marked deleted")
	}
	if !first.Timestamp.Equal(time.Unix(0, now.UnixNano())) {
		t.Errorf("timestamp = %v", first.Timestamp)
	}

	second := updates[1]
	if !second.Deleted || second.Value != nil {
		t.Errorf("delete entry = %+v, want deleted with nil value", second)
	}
	if second.Path != "/interfaces/interface[name=eth1]" {
		t.Errorf("delete path = %q", second.Path)
	}
}

func TestNotificationMetrics(t *testing.T) {
	d := newTestDriver(t, &types.DeviceConfig{
		Name: "rru-7",
		Type: types.DeviceCustom,
		Host: "10.0.0.7",
		CustomMappings: []types.CustomMapping{
			{Name: "radio_tx_power", Path: "/radio/ports/port/txPower", Scale: 0.1},
			{Name: "temperature", Path: "/radio/environment/temperature", Scale: 1},
		},
	})

	updates := []TelemetryUpdate{
		{Path: "/radio/ports/port[id=1]/txPower", Value: int64(125)},
		{Path: "/radio/environment/temperature", Value: "47"},
		{Path: "/radio/ports/port[id=2]/rxLevel", Value: int64(-90)},
		{Path: "/radio/ports/port[id=3]/txPower", Value: "offline"},
		{Path: "/radio/ports/port[id=4]/txPower", Value: int64(99), Deleted: true},
	}

	metrics := d.notificationMetrics(updates)
	if len(metrics) != 2 {
		t.Fatalf("got %d metrics, want 2: %+v", len(metrics), metrics)
	}

	byType := make(map[types.MetricType]float64)
	for _, m := range metrics {
		byType[m.Type] = m.Value
	}
	if !almostEqual(byType[types.MetricRadioTxPower], 12.5) {
		t.Errorf("tx power = %v, want 12.5", byType[types.MetricRadioTxPower])
	}
	if !almostEqual(byType[types.MetricTemperature], 47) {
		t.Errorf("temperature = %v, want 47", byType[types.MetricTemperature])
	}
}

func TestSubscribeMetricsRequiresHandler(t *testing.T) {
	d := newTestDriver(t, nil)
	if _, err := d.SubscribeMetrics(context.Background(), time.Second, nil); err == nil {
		t.Error("SubscribeMetrics without handler should fail")
	}
}

func TestSubscriptionStopIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		cancel:  cancel,
		updates: make(chan []TelemetryUpdate, 1),
		errors:  make(chan error, 1),
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := sub.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Stop should cancel the subscription context")
	}
}

func TestSubscriptionStopped(t *testing.T) {
	if !subscriptionStopped(context.Canceled) {
		t.Error("context.Canceled should count as stopped")
	}
	if !subscriptionStopped(errors.New("rpc error: code = Canceled desc = context canceled")) {
		t.Error("wrapped cancellation should count as stopped")
	}
	if subscriptionStopped(errors.New("connection refused")) {
		t.Error("transport errors should not count as stopped")
	}
}
