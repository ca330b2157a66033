// Package snmp polls radio and baseband units over SNMP. The protocol is
// read-only here: it serves units whose NETCONF or gNMI surface is disabled
// in the field, at the price of vendor enterprise OID tables.
package snmp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/edgelink-io/ran-southbound/pkg/logger"
	"github.com/edgelink-io/ran-southbound/types"
)

// ErrNotConnected is returned by operations that need an open client.
var ErrNotConnected = errors.New("not connected")

// maxOIDsPerRequest bounds one GET so the reply stays inside a typical
// agent's UDP packet budget.
const maxOIDsPerRequest = 16

// Driver collects telemetry over SNMP v1/v2c/v3.
type Driver struct {
	config *types.DeviceConfig
	oids   []OIDMapping
	logger *logger.Logger

	mu   sync.RWMutex
	snmp *gosnmp.GoSNMP
}

var (
	_ types.Collector    = (*Driver)(nil)
	_ types.SNMPExecutor = (*Driver)(nil)
)

// NewDriver creates an SNMP collector for one unit. The OID table is
// resolved here and stays fixed for the driver's lifetime. A nil logger
// disables logging.
func NewDriver(config *types.DeviceConfig, log *logger.Logger) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if config.Port == 0 {
		config.Port = 161
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Driver{
		config: config,
		oids:   ForDevice(config.Type, config.CustomMappings),
		logger: log,
	}, nil
}

// buildClient assembles the gosnmp client from the device config. Version
// and community come from Metadata: snmp_version (1, 2c, 3; default 2c) and
// snmp_community (default public). SNMPv3 authenticates with the config
// username/password using SHA auth and AES privacy.
func buildClient(config *types.DeviceConfig) *gosnmp.GoSNMP {
	version := gosnmp.Version2c
	if v, ok := config.Metadata["snmp_version"]; ok {
		switch v {
		case "1":
			version = gosnmp.Version1
		case "2c":
			version = gosnmp.Version2c
		case "3":
			version = gosnmp.Version3
		}
	}

	community := "public"
	if c, ok := config.Metadata["snmp_community"]; ok {
		community = c
	}

	port := config.Port
	if port < 0 || port > 65535 {
		port = 161
	}

	client := &gosnmp.GoSNMP{
		Target:    config.Host,
		Port:      uint16(port), //nolint:gosec // validated above
		Community: community,
		Version:   version,
		Timeout:   config.Timeout,
		Retries:   3,
	}

	if version == gosnmp.Version3 {
		client.SecurityModel = gosnmp.UserSecurityModel
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 config.Username,
			AuthenticationProtocol:   gosnmp.SHA,
			AuthenticationPassphrase: config.Password,
			PrivacyProtocol:          gosnmp.AES,
			PrivacyPassphrase:        config.Password,
		}
		client.MsgFlags = gosnmp.AuthPriv
	}

	return client
}

// Connect opens the SNMP socket. SNMP being datagram based, reachability is
// only proven by the first request; HealthCheck does that.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snmp != nil {
		return nil
	}

	client := buildClient(d.config)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("snmp connect %s:%d: %w", d.config.Host, d.config.Port, err)
	}

	d.snmp = client
	return nil
}

// Close shuts the SNMP socket. Safe to call repeatedly.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snmp == nil {
		return nil
	}

	var err error
	if d.snmp.Conn != nil {
		err = d.snmp.Conn.Close()
	}
	d.snmp = nil
	if err != nil {
		return fmt.Errorf("snmp close: %w", err)
	}
	return nil
}

// IsConnected reports whether the client socket is open.
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snmp != nil
}

func (d *Driver) client() (*gosnmp.GoSNMP, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.snmp == nil {
		return nil, ErrNotConnected
	}
	return d.snmp, nil
}

// CollectMetrics polls every object in the unit's OID table, batching GETs
// in chunks. A failed chunk is skipped with a warning; objects that are
// missing, non-numeric or carry the offline marker are skipped at debug
// level. Whatever was collected is returned.
func (d *Driver) CollectMetrics(ctx context.Context) ([]types.Metric, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	metrics := make([]types.Metric, 0, len(d.oids))
	for start := 0; start < len(d.oids); start += maxOIDsPerRequest {
		end := start + maxOIDsPerRequest
		if end > len(d.oids) {
			end = len(d.oids)
		}
		chunk := d.oids[start:end]

		request := make([]string, len(chunk))
		for i, m := range chunk {
			request[i] = m.OID
		}

		packet, err := client.Get(request)
		if err != nil {
			d.logger.Warnf("snmp get on %s: %v", d.config.Name, err)
			continue
		}

		results := make(map[string]interface{}, len(packet.Variables))
		for _, v := range packet.Variables {
			results[v.Name] = v.Value
		}
		metrics = d.collectFromResults(results, chunk, metrics)
	}
	return metrics, nil
}

// collectFromResults extracts the chunk's metrics out of one reply's result
// map, applying each mapping's transform.
func (d *Driver) collectFromResults(results map[string]interface{}, chunk []OIDMapping, metrics []types.Metric) []types.Metric {
	for _, m := range chunk {
		value, ok := lookupResult(results, m.OID)
		if !ok {
			d.logger.Debugf("oid %s missing on %s", m.OID, d.config.Name)
			continue
		}
		raw, ok := parseNumeric(value)
		if !ok {
			d.logger.Debugf("oid %s on %s is not numeric: %v", m.OID, d.config.Name, value)
			continue
		}
		if int64(raw) == SNMPInvalidValue {
			d.logger.Debugf("oid %s on %s reports the offline marker", m.OID, d.config.Name)
			continue
		}
		metrics = append(metrics, types.Metric{Type: m.Type, Value: m.Apply(raw)})
	}
	return metrics
}

// CollectMetric polls one metric. Unlike CollectMetrics, every failure
// surfaces: the caller asked for this specific value.
func (d *Driver) CollectMetric(ctx context.Context, metric types.MetricType) (types.Metric, error) {
	client, err := d.client()
	if err != nil {
		return types.Metric{}, err
	}

	m, ok := findOID(d.oids, metric)
	if !ok {
		return types.Metric{}, fmt.Errorf("no oid for metric %q on device type %q", metric, d.config.Type)
	}

	packet, err := client.Get([]string{m.OID})
	if err != nil {
		return types.Metric{}, fmt.Errorf("snmp get %s: %w", m.OID, err)
	}
	if len(packet.Variables) == 0 {
		return types.Metric{}, fmt.Errorf("no result for oid %s", m.OID)
	}

	raw, ok := parseNumeric(packet.Variables[0].Value)
	if !ok {
		return types.Metric{}, fmt.Errorf("oid %s value is not numeric: %v", m.OID, packet.Variables[0].Value)
	}
	if int64(raw) == SNMPInvalidValue {
		return types.Metric{}, fmt.Errorf("oid %s reports the offline marker", m.OID)
	}
	return types.Metric{Type: metric, Value: m.Apply(raw)}, nil
}

// HealthCheck queries sysDescr to prove the agent answers.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if _, err := d.GetSNMP(ctx, OIDSysDescr); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// GetSNMP retrieves a single value by OID.
func (d *Driver) GetSNMP(ctx context.Context, oid string) (interface{}, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	packet, err := client.Get([]string{oid})
	if err != nil {
		return nil, fmt.Errorf("snmp get %s: %w", oid, err)
	}
	if len(packet.Variables) == 0 {
		return nil, fmt.Errorf("no result for oid %s", oid)
	}
	return decodeVariable(packet.Variables[0]), nil
}

// WalkSNMP walks an OID subtree and returns values keyed by the index
// relative to the base OID.
func (d *Driver) WalkSNMP(ctx context.Context, oid string) (map[string]interface{}, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	base := strings.TrimPrefix(oid, ".")
	results := make(map[string]interface{})
	walkErr := client.Walk(oid, func(pdu gosnmp.SnmpPDU) error {
		name := strings.TrimPrefix(pdu.Name, ".")
		index := strings.TrimPrefix(strings.TrimPrefix(name, base), ".")
		if index == "" {
			index = name
		}
		results[index] = decodeVariable(pdu)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("snmp walk %s: %w", oid, walkErr)
	}
	return results, nil
}

// BulkGetSNMP retrieves multiple OIDs in one request, keyed by the OID the
// agent reports.
func (d *Driver) BulkGetSNMP(ctx context.Context, oids []string) (map[string]interface{}, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	packet, err := client.Get(oids)
	if err != nil {
		return nil, fmt.Errorf("snmp get: %w", err)
	}

	results := make(map[string]interface{}, len(packet.Variables))
	for _, v := range packet.Variables {
		results[v.Name] = decodeVariable(v)
	}
	return results, nil
}

// decodeVariable normalizes a PDU value: octet strings become string,
// signed integers int64, counters and gauges uint64. Anything else passes
// through as the library decoded it.
func decodeVariable(pdu gosnmp.SnmpPDU) interface{} {
	switch pdu.Type {
	case gosnmp.OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			return string(b)
		}
	case gosnmp.Integer:
		if v, ok := pdu.Value.(int); ok {
			return int64(v)
		}
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks:
		switch v := pdu.Value.(type) {
		case uint:
			return uint64(v)
		case uint32:
			return uint64(v)
		}
	case gosnmp.Counter64:
		if v, ok := pdu.Value.(uint64); ok {
			return v
		}
	}
	return pdu.Value
}

// lookupResult finds an OID in a result map. gosnmp reports names with a
// leading dot while the tables omit it, so both spellings are tried.
func lookupResult(results map[string]interface{}, oid string) (interface{}, bool) {
	if results == nil {
		return nil, false
	}
	if !strings.HasPrefix(oid, ".") {
		if v, ok := results["."+oid]; ok {
			return v, true
		}
	}
	if v, ok := results[oid]; ok {
		return v, true
	}
	if v, ok := results[strings.TrimPrefix(oid, ".")]; ok {
		return v, true
	}
	return nil, false
}

// parseNumeric widens any numeric SNMP value to float64.
func parseNumeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
