// Package influx provides InfluxDB time-series metrics for the OreQuest engine.
// It records mining throughput, reveal outcomes, and settlement activity.
package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Client wraps InfluxDB operations for time-series metrics
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	queryAPI api.QueryAPI
	bucket   string
	org      string
}

// Config holds InfluxDB connection configuration
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewClient creates a new InfluxDB client
func NewClient(cfg *Config) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check InfluxDB health: %w", err)
	}

	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s", msg)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	queryAPI := client.QueryAPI(cfg.Org)

	return &Client{
		client:   client,
		writeAPI: writeAPI,
		queryAPI: queryAPI,
		bucket:   cfg.Bucket,
		org:      cfg.Org,
	}, nil
}

// Close closes the InfluxDB connection
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}

// Health checks InfluxDB connectivity
func (c *Client) Health(ctx context.Context) error {
	health, err := c.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to check health: %w", err)
	}

	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("health check failed: %s", msg)
	}

	return nil
}

// Mining metrics

// WriteOreMinedMetric writes a single ore discovery metric
func (c *Client) WriteOreMinedMetric(miner string, sessionID uint64, oreType string, amount uint8) {
	tags := map[string]string{
		"miner":    miner,
		"ore_type": oreType,
	}

	fields := map[string]interface{}{
		"session_id": int64(sessionID),
		"amount":     int64(amount),
		"count":      1,
	}

	point := write.NewPoint("ore_mined", tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WriteSessionMetric writes a session lifecycle transition
func (c *Client) WriteSessionMetric(miner string, sessionID uint64, phase string, totalMined uint8) {
	tags := map[string]string{
		"miner": miner,
		"phase": phase,
	}

	fields := map[string]interface{}{
		"session_id":  int64(sessionID),
		"total_mined": int64(totalMined),
		"count":       1,
	}

	point := write.NewPoint("sessions", tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WriteRevealMetric writes a reveal attempt outcome
func (c *Client) WriteRevealMetric(claimer string, claimID uint64, accepted bool, oreCount int64, totalValue uint8) {
	tags := map[string]string{
		"claimer":  claimer,
		"accepted": fmt.Sprintf("%t", accepted),
	}

	fields := map[string]interface{}{
		"claim_id":    int64(claimID),
		"ore_count":   oreCount,
		"total_value": int64(totalValue),
		"count":       1,
	}

	point := write.NewPoint("reveals", tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WriteSettlementLatencyMetric writes claim-to-settlement latency
func (c *Client) WriteSettlementLatencyMetric(claimer string, claimID uint64, latency time.Duration) {
	tags := map[string]string{
		"claimer": claimer,
	}

	fields := map[string]interface{}{
		"claim_id":   int64(claimID),
		"latency_ms": latency.Milliseconds(),
	}

	point := write.NewPoint("settlement_latency", tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// Engine statistics

// WriteEngineStatsMetric writes overall engine statistics
func (c *Client) WriteEngineStatsMetric(activeSessions, pendingClaims, settledClaims, trackedMiners int64) {
	fields := map[string]interface{}{
		"active_sessions": activeSessions,
		"pending_claims":  pendingClaims,
		"settled_claims":  settledClaims,
		"tracked_miners":  trackedMiners,
	}

	point := write.NewPoint("engine_stats", map[string]string{}, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// System metrics

// WriteSystemMetric writes system performance metrics
func (c *Client) WriteSystemMetric(service string, cpuUsage, memoryUsage float64, goroutines int64) {
	tags := map[string]string{
		"service": service,
	}

	fields := map[string]interface{}{
		"cpu_usage":    cpuUsage,
		"memory_usage": memoryUsage,
		"goroutines":   goroutines,
	}

	point := write.NewPoint("system", tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// Query methods

// GetOreThroughputHistory retrieves ore mining throughput for a miner
func (c *Client) GetOreThroughputHistory(ctx context.Context, miner string, duration time.Duration) ([]ThroughputPoint, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: -%s)
		|> filter(fn: (r) => r._measurement == "ore_mined")
		|> filter(fn: (r) => r.miner == "%s")
		|> filter(fn: (r) => r._field == "amount")
		|> aggregateWindow(every: 5m, fn: sum, createEmpty: false)
	`, c.bucket, duration.String(), miner)

	result, err := c.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ore throughput: %w", err)
	}
	defer func() {
		if err := result.Close(); err != nil {
			_ = err // Ignore close errors for now
		}
	}()

	var points []ThroughputPoint
	for result.Next() {
		record := result.Record()
		if value, ok := record.Value().(int64); ok {
			points = append(points, ThroughputPoint{
				Time:   record.Time(),
				Amount: value,
			})
		}
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("error reading query result: %w", result.Err())
	}

	return points, nil
}

// GetRevealStats retrieves reveal outcome statistics for a time period
func (c *Client) GetRevealStats(ctx context.Context, claimer string, duration time.Duration) (*RevealStats, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: -%s)
		|> filter(fn: (r) => r._measurement == "reveals")
		|> filter(fn: (r) => r.claimer == "%s")
		|> filter(fn: (r) => r._field == "count")
		|> group(columns: ["accepted"])
		|> sum()
	`, c.bucket, duration.String(), claimer)

	result, err := c.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reveal stats: %w", err)
	}
	defer func() {
		if err := result.Close(); err != nil {
			_ = err // Ignore close errors for now
		}
	}()

	stats := &RevealStats{}
	for result.Next() {
		record := result.Record()
		if count, ok := record.Value().(int64); ok {
			if record.ValueByKey("accepted") == "true" {
				stats.Accepted = count
			} else {
				stats.Rejected = count
			}
		}
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("error reading query result: %w", result.Err())
	}

	stats.Total = stats.Accepted + stats.Rejected
	if stats.Total > 0 {
		stats.AcceptedPercent = float64(stats.Accepted) / float64(stats.Total) * 100
	}

	return stats, nil
}

// Flush forces a write of all pending points
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

// Data structures

// ThroughputPoint represents mined ore volume at a point in time
type ThroughputPoint struct {
	Time   time.Time `json:"time"`
	Amount int64     `json:"amount"`
}

// RevealStats represents aggregated reveal outcome statistics
type RevealStats struct {
	Total           int64   `json:"total"`
	Accepted        int64   `json:"accepted"`
	Rejected        int64   `json:"rejected"`
	AcceptedPercent float64 `json:"accepted_percent"`
}
