package messaging

import "time"

// OreTelemetryMessage represents a rig ore-accrual frame relayed over Kafka
type OreTelemetryMessage struct {
	SessionID uint64    `json:"session_id"`
	OreType   string    `json:"ore_type"`
	Amount    uint8     `json:"amount"`
	RigID     string    `json:"rig_id,omitempty"`
	MinedAt   time.Time `json:"mined_at"`
}

// MinerStatsSnapshot represents a settled per-miner stats snapshot
// published for dashboards after a successful settlement
type MinerStatsSnapshot struct {
	Miner          string    `json:"miner"`
	TotalSessions  uint64    `json:"total_sessions"`
	TotalOresMined uint64    `json:"total_ores_mined"`
	Reputation     uint64    `json:"reputation"`
	IsVerified     bool      `json:"is_verified"`
	UpdatedAt      time.Time `json:"updated_at"`
}
