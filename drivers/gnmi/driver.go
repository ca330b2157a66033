// Package gnmi implements metric collection over gNMI for units that expose
// an OpenConfig-style telemetry interface. Polling uses Get over the path
// mapping table; streaming uses a sampled Subscribe feeding a handler.
package gnmi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/edgelink-io/ran-southbound/mapping"
	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

const (
	defaultPort    = 9339
	defaultTimeout = 30 * time.Second

	// capabilityTimeout bounds the capability probe on connect.
	capabilityTimeout = 10 * time.Second
)

// ErrNotConnected is returned when an operation needs an open gRPC channel.
var ErrNotConnected = errors.New("not connected")

// Executor is the raw gNMI surface for callers that need more than the
// Collector interface. The driver is read-only; Set is deliberately absent.
type Executor interface {
	Capabilities(ctx context.Context) (*DeviceCapabilities, error)
	Get(ctx context.Context, paths []string) (map[string]interface{}, error)
	Subscribe(ctx context.Context, config *SubscriptionConfig) (Subscription, error)
}

// DeviceCapabilities reports what the target advertised in its
// CapabilityResponse.
type DeviceCapabilities struct {
	Models    []ModelInfo
	Encodings []string
	GNMIVer   string
}

// ModelInfo identifies one supported YANG model.
type ModelInfo struct {
	Name         string
	Organization string
	Version      string
}

// SubscriptionMode selects how the target emits updates.
type SubscriptionMode int

const (
	// SubscriptionModeOnChange emits an update whenever the value changes.
	SubscriptionModeOnChange SubscriptionMode = iota
	// SubscriptionModeSample emits at a fixed sample interval.
	SubscriptionModeSample
	// SubscriptionModeTargetDefined lets the target pick the mode per path.
	SubscriptionModeTargetDefined
)

// SubscriptionConfig describes one streaming subscription.
type SubscriptionConfig struct {
	Paths             []string
	Mode              SubscriptionMode
	SampleInterval    time.Duration
	HeartbeatInterval time.Duration
	// Handler, when set, is invoked for every notification in addition to
	// the Updates channel.
	Handler func([]TelemetryUpdate)
}

// TelemetryUpdate is one path/value pair from a notification. Deleted paths
// carry a nil Value and Deleted true.
type TelemetryUpdate struct {
	Path      string
	Value     interface{}
	Timestamp time.Time
	Deleted   bool
}

// Subscription is a live telemetry stream. Stop cancels the stream; the
// Updates and Errors channels close once the stream reader exits.
type Subscription interface {
	Stop() error
	Updates() <-chan []TelemetryUpdate
	Errors() <-chan error
}

type subscription struct {
	cancel   context.CancelFunc
	updates  chan []TelemetryUpdate
	errors   chan error
	stopOnce sync.Once
}

func (s *subscription) Stop() error {
	s.stopOnce.Do(s.cancel)
	return nil
}

func (s *subscription) Updates() <-chan []TelemetryUpdate { return s.updates }

func (s *subscription) Errors() <-chan error { return s.errors }

// Driver collects metrics from one unit over gNMI.
type Driver struct {
	config   *types.DeviceConfig
	mappings []mapping.MetricMapping
	logger   *logger.Logger

	mu           sync.RWMutex
	conn         *grpc.ClientConn
	client       gnmipb.GNMIClient
	capabilities *DeviceCapabilities

	subMu  sync.Mutex
	subSeq uint64
	subs   map[uint64]*subscription
}

var (
	_ types.Collector = (*Driver)(nil)
	_ Executor        = (*Driver)(nil)
)

// NewDriver validates the config and prepares a disconnected driver.
func NewDriver(config *types.DeviceConfig, log *logger.Logger) (*Driver, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Host == "" {
		return nil, errors.New("host is required")
	}
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Driver{
		config:   config,
		mappings: mapping.ForDevice(config.Type, config.CustomMappings),
		logger:   log,
		subs:     make(map[uint64]*subscription),
	}, nil
}

// Connect dials the target and probes its capabilities. A target that
// cannot answer Capabilities is treated as unreachable.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return nil
	}

	target := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)
	dialCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target, d.dialOptions()...) //nolint:staticcheck // DialContext is supported throughout 1.x
	if err != nil {
		return fmt.Errorf("gnmi dial %s: %w", target, err)
	}

	client := gnmipb.NewGNMIClient(conn)
	caps, err := d.probeCapabilities(ctx, client)
	if err != nil {
		conn.Close() //nolint:errcheck
		return fmt.Errorf("gnmi capabilities %s: %w", target, err)
	}

	d.conn = conn
	d.client = client
	d.capabilities = caps
	d.logger.Infof("connected to %s (%s, gnmi %s, %d models)",
		d.config.Name, target, caps.GNMIVer, len(caps.Models))
	return nil
}

func (d *Driver) dialOptions() []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithBlock(), //nolint:staticcheck // fail at dial time, not first RPC
	}

	tlsEnabled, skipVerify := tlsFromMetadata(d.config.Metadata)
	if tlsEnabled {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: skipVerify, //nolint:gosec // policy selected by config
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	return opts
}

// tlsFromMetadata reads the gnmi_tls and gnmi_tls_skip_verify flags.
func tlsFromMetadata(md map[string]string) (enabled, skipVerify bool) {
	return md["gnmi_tls"] == "true", md["gnmi_tls_skip_verify"] == "true"
}

// authContext attaches username/password metadata when credentials are set.
func (d *Driver) authContext(ctx context.Context) context.Context {
	if d.config.Username == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx,
		"username", d.config.Username,
		"password", d.config.Password,
	)
}

func (d *Driver) probeCapabilities(ctx context.Context, client gnmipb.GNMIClient) (*DeviceCapabilities, error) {
	probeCtx, cancel := context.WithTimeout(d.authContext(ctx), capabilityTimeout)
	defer cancel()

	resp, err := client.Capabilities(probeCtx, &gnmipb.CapabilityRequest{})
	if err != nil {
		return nil, err
	}

	caps := &DeviceCapabilities{GNMIVer: resp.GNMIVersion}
	for _, model := range resp.SupportedModels {
		caps.Models = append(caps.Models, ModelInfo{
			Name:         model.Name,
			Organization: model.Organization,
			Version:      model.Version,
		})
	}
	for _, enc := range resp.SupportedEncodings {
		caps.Encodings = append(caps.Encodings, enc.String())
	}
	return caps, nil
}

// Close stops all subscriptions and releases the gRPC channel.
func (d *Driver) Close() error {
	d.subMu.Lock()
	subs := make([]*subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.subMu.Unlock()
	for _, sub := range subs {
		sub.Stop() //nolint:errcheck
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	d.client = nil
	d.capabilities = nil
	d.logger.Infof("disconnected from %s", d.config.Name)
	return err
}

// IsConnected reports whether the gRPC channel is open.
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conn != nil
}

func (d *Driver) clientSnapshot() (gnmipb.GNMIClient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, ErrNotConnected
	}
	return d.client, nil
}

// Capabilities re-probes the target. The result cached at connect time is
// served when the probe fails but the channel is still open.
func (d *Driver) Capabilities(ctx context.Context) (*DeviceCapabilities, error) {
	client, err := d.clientSnapshot()
	if err != nil {
		return nil, err
	}

	caps, err := d.probeCapabilities(ctx, client)
	if err != nil {
		d.mu.RLock()
		cached := d.capabilities
		d.mu.RUnlock()
		if cached != nil {
			d.logger.Debugf("capability probe failed, serving cached: %v", err)
			return cached, nil
		}
		return nil, err
	}

	d.mu.Lock()
	d.capabilities = caps
	d.mu.Unlock()
	return caps, nil
}

// Get fetches the given paths in one request. Results are keyed by the
// response path rendered through PathToString.
func (d *Driver) Get(ctx context.Context, paths []string) (map[string]interface{}, error) {
	client, err := d.clientSnapshot()
	if err != nil {
		return nil, err
	}

	req := &gnmipb.GetRequest{Encoding: gnmipb.Encoding_JSON_IETF}
	for _, p := range paths {
		req.Path = append(req.Path, ParsePath(p))
	}

	getCtx, cancel := context.WithTimeout(d.authContext(ctx), d.config.Timeout)
	defer cancel()

	resp, err := client.Get(getCtx, req)
	if err != nil {
		return nil, fmt.Errorf("gnmi get: %w", err)
	}

	results := make(map[string]interface{})
	for _, notif := range resp.Notification {
		prefix := notificationPrefix(notif)
		for _, update := range notif.Update {
			results[prefix+PathToString(update.Path)] = decodeTypedValue(update.Val)
		}
	}
	return results, nil
}

func notificationPrefix(notif *gnmipb.Notification) string {
	prefix := PathToString(notif.Prefix)
	if prefix == "/" || prefix == "" {
		return ""
	}
	return prefix
}

// CollectMetrics polls every mapped path. Paths the target rejects or
// returns nothing for are logged and skipped.
func (d *Driver) CollectMetrics(ctx context.Context) ([]types.Metric, error) {
	if !d.IsConnected() {
		return nil, ErrNotConnected
	}

	var metrics []types.Metric
	for _, m := range d.mappings {
		results, err := d.Get(ctx, []string{m.Path})
		if err != nil {
			d.logger.Warnf("%s: get %s: %v", d.config.Name, m.Path, err)
			continue
		}
		value, ok := lookupPath(results, m.Path)
		if !ok {
			d.logger.Debugf("%s: no value at %s", d.config.Name, m.Path)
			continue
		}
		raw, ok := toFloat64(value)
		if !ok {
			d.logger.Debugf("%s: non-numeric value at %s: %v", d.config.Name, m.Path, value)
			continue
		}
		metrics = append(metrics, types.Metric{Type: m.Type, Value: m.Apply(raw)})
	}
	return metrics, nil
}

// CollectMetric polls a single metric. Unlike CollectMetrics, every failure
// surfaces to the caller.
func (d *Driver) CollectMetric(ctx context.Context, metricType types.MetricType) (types.Metric, error) {
	if !d.IsConnected() {
		return types.Metric{}, ErrNotConnected
	}

	m, ok := mapping.Find(d.mappings, metricType)
	if !ok {
		return types.Metric{}, fmt.Errorf("no mapping for metric %q on device type %q", metricType, d.config.Type)
	}

	results, err := d.Get(ctx, []string{m.Path})
	if err != nil {
		return types.Metric{}, err
	}
	value, ok := lookupPath(results, m.Path)
	if !ok {
		return types.Metric{}, fmt.Errorf("no value at %s", m.Path)
	}
	raw, ok := toFloat64(value)
	if !ok {
		return types.Metric{}, fmt.Errorf("non-numeric value at %s: %v", m.Path, value)
	}
	return types.Metric{Type: m.Type, Value: m.Apply(raw)}, nil
}

// HealthCheck probes the target with a capability request.
func (d *Driver) HealthCheck(ctx context.Context) error {
	client, err := d.clientSnapshot()
	if err != nil {
		return err
	}
	_, err = d.probeCapabilities(ctx, client)
	return err
}

// lookupPath finds a response value for a requested path. Response paths may
// carry list keys or a server-side prefix, so matching is on the key-stripped
// form, exact first and then by suffix.
func lookupPath(results map[string]interface{}, path string) (interface{}, bool) {
	want := canonicalPath(path)
	if want == "" {
		return nil, false
	}
	for p, v := range results {
		if canonicalPath(p) == want {
			return v, true
		}
	}
	for p, v := range results {
		if strings.HasSuffix(canonicalPath(p), want) {
			return v, true
		}
	}
	return nil, false
}

// Subscribe opens a streaming subscription. The returned Subscription stays
// valid until Stop, Close, or a stream error.
func (d *Driver) Subscribe(ctx context.Context, config *SubscriptionConfig) (Subscription, error) {
	client, err := d.clientSnapshot()
	if err != nil {
		return nil, err
	}
	if config == nil || len(config.Paths) == 0 {
		return nil, errors.New("subscription needs at least one path")
	}

	subCtx, cancel := context.WithCancel(d.authContext(ctx))
	stream, err := client.Subscribe(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("gnmi subscribe: %w", err)
	}
	if err := stream.Send(buildSubscribeRequest(config)); err != nil {
		cancel()
		return nil, fmt.Errorf("gnmi subscribe request: %w", err)
	}

	sub := &subscription{
		cancel:  cancel,
		updates: make(chan []TelemetryUpdate, 100),
		errors:  make(chan error, 10),
	}

	d.subMu.Lock()
	d.subSeq++
	id := d.subSeq
	d.subs[id] = sub
	d.subMu.Unlock()

	go d.readSubscription(id, sub, stream, config.Handler)
	return sub, nil
}

func buildSubscribeRequest(config *SubscriptionConfig) *gnmipb.SubscribeRequest {
	list := &gnmipb.SubscriptionList{
		Mode:     gnmipb.SubscriptionList_STREAM,
		Encoding: gnmipb.Encoding_JSON_IETF,
	}

	for _, path := range config.Paths {
		sub := &gnmipb.Subscription{Path: ParsePath(path)}
		switch config.Mode {
		case SubscriptionModeSample:
			sub.Mode = gnmipb.SubscriptionMode_SAMPLE
			sub.SampleInterval = uint64(config.SampleInterval.Nanoseconds())
		case SubscriptionModeOnChange:
			sub.Mode = gnmipb.SubscriptionMode_ON_CHANGE
			if config.HeartbeatInterval > 0 {
				sub.HeartbeatInterval = uint64(config.HeartbeatInterval.Nanoseconds())
			}
		default:
			sub.Mode = gnmipb.SubscriptionMode_TARGET_DEFINED
		}
		list.Subscription = append(list.Subscription, sub)
	}

	return &gnmipb.SubscribeRequest{
		Request: &gnmipb.SubscribeRequest_Subscribe{Subscribe: list},
	}
}

// readSubscription is the sole sender on the subscription channels and
// closes them when the stream ends.
func (d *Driver) readSubscription(id uint64, sub *subscription, stream gnmipb.GNMI_SubscribeClient, handler func([]TelemetryUpdate)) {
	defer func() {
		close(sub.updates)
		close(sub.errors)
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if subscriptionStopped(err) {
				return
			}
			d.logger.Debugf("%s: subscription stream: %v", d.config.Name, err)
			select {
			case sub.errors <- err:
			default:
			}
			return
		}

		notif := resp.GetUpdate()
		if notif == nil {
			continue
		}
		updates := parseNotification(notif)
		if len(updates) == 0 {
			continue
		}
		if handler != nil {
			handler(updates)
		}
		select {
		case sub.updates <- updates:
		default:
			// Slow consumer; drop rather than stall the stream.
		}
	}
}

func subscriptionStopped(err error) bool {
	return errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled")
}

func parseNotification(notif *gnmipb.Notification) []TelemetryUpdate {
	ts := time.Unix(0, notif.Timestamp)
	prefix := notificationPrefix(notif)

	var updates []TelemetryUpdate
	for _, update := range notif.Update {
		updates = append(updates, TelemetryUpdate{
			Path:      prefix + PathToString(update.Path),
			Value:     decodeTypedValue(update.Val),
			Timestamp: ts,
		})
	}
	for _, deleted := range notif.Delete {
		updates = append(updates, TelemetryUpdate{
			Path:      prefix + PathToString(deleted),
			Timestamp: ts,
			Deleted:   true,
		})
	}
	return updates
}

// SubscribeMetrics starts a sampled stream over every mapped path and feeds
// normalized metrics to handler. Updates that match no mapping are ignored.
func (d *Driver) SubscribeMetrics(ctx context.Context, interval time.Duration, handler func([]types.Metric)) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	paths := make([]string, len(d.mappings))
	for i, m := range d.mappings {
		paths[i] = m.Path
	}

	return d.Subscribe(ctx, &SubscriptionConfig{
		Paths:          paths,
		Mode:           SubscriptionModeSample,
		SampleInterval: interval,
		Handler: func(updates []TelemetryUpdate) {
			if metrics := d.notificationMetrics(updates); len(metrics) > 0 {
				handler(metrics)
			}
		},
	})
}

// notificationMetrics translates raw updates through the mapping table.
func (d *Driver) notificationMetrics(updates []TelemetryUpdate) []types.Metric {
	var metrics []types.Metric
	for _, update := range updates {
		if update.Deleted {
			continue
		}
		got := canonicalPath(update.Path)
		for _, m := range d.mappings {
			want := canonicalPath(m.Path)
			if got != want && !strings.HasSuffix(got, want) {
				continue
			}
			if raw, ok := toFloat64(update.Value); ok {
				metrics = append(metrics, types.Metric{Type: m.Type, Value: m.Apply(raw)})
			}
			break
		}
	}
	return metrics
}
