package postgres

import (
	"time"
)

// Session represents a mining session record
type Session struct {
	ID         int64      `db:"id"`
	SessionID  int64      `db:"session_id"`
	Miner      string     `db:"miner"`
	TotalMined int16      `db:"total_mined"`
	Status     string     `db:"status"` // active, ended, settled
	StartedAt  time.Time  `db:"started_at"`
	EndedAt    *time.Time `db:"ended_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Claim represents an ore claim record. The amount breakdown and total
// value stay NULL until the claim is revealed.
type Claim struct {
	ID             int64      `db:"id"`
	ClaimID        int64      `db:"claim_id"`
	SessionID      int64      `db:"session_id"`
	Claimer        string     `db:"claimer"`
	Commitment     string     `db:"commitment"`
	GoldAmount     *int16     `db:"gold_amount"`
	EmeraldAmount  *int16     `db:"emerald_amount"`
	RubyAmount     *int16     `db:"ruby_amount"`
	SapphireAmount *int16     `db:"sapphire_amount"`
	DiamondAmount  *int16     `db:"diamond_amount"`
	TotalValue     *int16     `db:"total_value"`
	IsRevealed     bool       `db:"is_revealed"`
	CreatedAt      time.Time  `db:"created_at"`
	RevealedAt     *time.Time `db:"revealed_at"`
}

// MinerStats represents aggregated per-miner statistics
type MinerStats struct {
	Miner          string     `db:"miner"`
	TotalSessions  int64      `db:"total_sessions"`
	TotalOresMined int64      `db:"total_ores_mined"`
	Reputation     int64      `db:"reputation"`
	IsVerified     bool       `db:"is_verified"`
	UpdatedAt      time.Time  `db:"updated_at"`
	LastSessionAt  *time.Time `db:"last_session_at"`
}

// MiningEvent represents a single ore discovery within a session
type MiningEvent struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	Miner     string    `db:"miner"`
	OreType   string    `db:"ore_type"`
	Amount    int16     `db:"amount"`
	MinedAt   time.Time `db:"mined_at"`
}
