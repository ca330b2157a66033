// Package mock implements an in-memory collector that simulates a unit.
// Readings are seeded from the device name, so the same simulated unit
// produces the same sequence run after run. Useful in tests and for staging
// a station file before real units exist.
package mock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/edgelink-io/ran-southbound/mapping"
	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

// ErrNotConnected is returned when the simulated connection is down.
var ErrNotConnected = errors.New("not connected")

// simulatedDial is the artificial connect latency.
const simulatedDial = 10 * time.Millisecond

// metricBases center the simulated readings; each collection jitters
// around base by at most jitter.
var metricBases = map[types.MetricType]struct{ base, jitter float64 }{
	types.MetricTemperature:      {45, 3},
	types.MetricRadioTxPower:     {43, 0.5},
	types.MetricVSWR:             {1.2, 0.1},
	types.MetricCPULoad:          {25, 15},
	types.MetricMemoryUsage:      {40, 10},
	types.MetricPSUVoltage:       {54.5, 0.5},
	types.MetricPSUCurrent:       {8, 1.5},
	types.MetricPRBUtilizationDL: {35, 20},
	types.MetricPRBUtilizationUL: {20, 10},
	types.MetricActiveUsers:      {120, 80},
	types.MetricMaxUsers:         {400, 0},
	types.MetricTransportLatency: {2.5, 1.5},
}

// Driver simulates one unit. It emits values for exactly the metrics the
// device type's mapping table names, so swapping a real driver in keeps the
// collection surface identical.
type Driver struct {
	config   *types.DeviceConfig
	mappings []mapping.MetricMapping
	logger   *logger.Logger

	mu           sync.RWMutex
	connected    bool
	started      time.Time
	rng          *rand.Rand
	counters     map[types.MetricType]float64
	connectCalls int
	closeCalls   int
	cmdHistory   []string
}

var (
	_ types.Collector   = (*Driver)(nil)
	_ types.CLIExecutor = (*Driver)(nil)
)

// NewDriver prepares a disconnected simulated unit.
func NewDriver(config *types.DeviceConfig, log *logger.Logger) (*Driver, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	seed := fnv.New64a()
	seed.Write([]byte(config.Name)) //nolint:errcheck // hash writes cannot fail

	return &Driver{
		config:   config,
		mappings: mapping.ForDevice(config.Type, config.CustomMappings),
		logger:   log,
		rng:      rand.New(rand.NewSource(int64(seed.Sum64()))), //nolint:gosec // simulated data
		counters: make(map[types.MetricType]float64),
	}, nil
}

// Connect simulates dialing the unit. Every call is counted, connected or
// not.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.connectCalls++
	select {
	case <-time.After(simulatedDial):
	case <-ctx.Done():
		return ctx.Err()
	}

	if !d.connected {
		d.connected = true
		d.started = time.Now()
	}
	d.logger.Debugf("mock %s connected", d.config.Name)
	return nil
}

// Close drops the simulated connection. Every call is counted.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closeCalls++
	d.connected = false
	d.logger.Debugf("mock %s closed", d.config.Name)
	return nil
}

// IsConnected reports the simulated connection state.
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// ConnectCalls returns how many times Connect was called.
func (d *Driver) ConnectCalls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectCalls
}

// CloseCalls returns how many times Close was called.
func (d *Driver) CloseCalls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closeCalls
}

// CollectMetrics produces a reading for every numeric metric in the mapping
// table.
func (d *Driver) CollectMetrics(ctx context.Context) ([]types.Metric, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var metrics []types.Metric
	for _, m := range d.mappings {
		value, ok := d.simulate(m.Type)
		if !ok {
			continue
		}
		metrics = append(metrics, types.Metric{Type: m.Type, Value: value})
	}
	return metrics, nil
}

// CollectMetric produces a single reading.
func (d *Driver) CollectMetric(ctx context.Context, metricType types.MetricType) (types.Metric, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return types.Metric{}, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return types.Metric{}, err
	}

	if _, ok := mapping.Find(d.mappings, metricType); !ok {
		return types.Metric{}, fmt.Errorf("no mapping for metric %q on device type %q", metricType, d.config.Type)
	}
	value, ok := d.simulate(metricType)
	if !ok {
		return types.Metric{}, fmt.Errorf("metric %q has no numeric reading", metricType)
	}
	return types.Metric{Type: metricType, Value: value}, nil
}

// simulate produces the next reading for one metric. Counters grow
// monotonically, uptime tracks the wall clock, everything else jitters
// around its base.
func (d *Driver) simulate(metricType types.MetricType) (float64, bool) {
	switch metricType {
	case types.MetricUptime:
		return time.Since(d.started).Seconds(), true
	case types.MetricSoftwareVersion:
		return 0, false
	case types.MetricIfInOctets:
		d.counters[metricType] += float64(d.rng.Intn(10_000_000)) //nolint:gosec // simulated data
		return d.counters[metricType], true
	case types.MetricIfOutOctets:
		d.counters[metricType] += float64(d.rng.Intn(50_000_000)) //nolint:gosec // simulated data
		return d.counters[metricType], true
	default:
		spec, ok := metricBases[metricType]
		if !ok {
			return 0, false
		}
		return spec.base + (d.rng.Float64()*2-1)*spec.jitter, true //nolint:gosec // simulated data
	}
}

// HealthCheck succeeds whenever the simulated connection is up.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if !d.IsConnected() {
		return ErrNotConnected
	}
	return ctx.Err()
}

// ExecCommand simulates a shell, answering a few show commands with canned
// output and everything else with an OK line. Commands are recorded.
func (d *Driver) ExecCommand(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return "", ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.cmdHistory = append(d.cmdHistory, command)

	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "version"):
		return d.versionOutput(), nil
	case strings.Contains(lower, "radio"):
		return radioOutput, nil
	case strings.Contains(lower, "temperature") || strings.Contains(lower, "environment"):
		return "Temperature: 45.2 C\n", nil
	default:
		return fmt.Sprintf("OK: %s", command), nil
	}
}

// ExecCommands runs commands in order, stopping at the first failure.
func (d *Driver) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	results := make([]string, 0, len(commands))
	for _, cmd := range commands {
		output, err := d.ExecCommand(ctx, cmd)
		if err != nil {
			return results, err
		}
		results = append(results, output)
	}
	return results, nil
}

// CommandHistory returns a copy of every command the simulated shell saw.
func (d *Driver) CommandHistory() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	history := make([]string, len(d.cmdHistory))
	copy(history, d.cmdHistory)
	return history
}

func (d *Driver) versionOutput() string {
	return fmt.Sprintf(`System Information
==================
Model:          Simulated Radio Unit
Software:       mock-1.0.0
Serial Number:  MOCK-%s
Uptime:         %.0f seconds
CPU usage:      25 %%
Memory usage:   40 %%
`, strings.ToUpper(d.config.Name), time.Since(d.started).Seconds())
}

const radioOutput = `Radio Port Status
=================
Port A txpower 43.1 dBm
Port B txpower 42.9 dBm
VSWR            1.21
Temperature:    45 C
`
