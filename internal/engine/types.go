package engine

import (
	"time"

	"github.com/orequest/oreq/internal/ore"
)

// SessionID identifies a mining session. IDs are assigned monotonically
// starting at 1; 0 is never a valid id.
type SessionID uint64

// ClaimID identifies an ore claim. Same assignment scheme as SessionID.
type ClaimID uint64

// Policy holds the deployment-selectable behavior knobs
type Policy struct {
	// AllowClaimBeforeEnd permits creating a claim while its session is
	// still active. Off by default: settle after mining.
	AllowClaimBeforeEnd bool

	// RequireVerifiedMiners restricts StartSession to miners whose
	// isVerified flag was set by the out-of-band authority.
	RequireVerifiedMiners bool
}

// SessionView is the read-only projection of a mining session
type SessionView struct {
	ID         SessionID  `json:"id"`
	Miner      string     `json:"miner"`
	TotalMined uint8      `json:"total_mined"`
	IsActive   bool       `json:"is_active"`
	IsSettled  bool       `json:"is_settled"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	ClaimID    ClaimID    `json:"claim_id,omitempty"`
}

// ClaimView is the read-only projection of an ore claim. Amounts and
// TotalValue are nil placeholders until the claim is revealed.
type ClaimView struct {
	ID         ClaimID      `json:"id"`
	SessionID  SessionID    `json:"session_id"`
	Claimer    string       `json:"claimer"`
	Commitment string       `json:"commitment"`
	IsRevealed bool         `json:"is_revealed"`
	Timestamp  time.Time    `json:"timestamp"`
	Amounts    *ore.Amounts `json:"amounts,omitempty"`
	TotalValue *uint8       `json:"total_value,omitempty"`
	RevealedAt *time.Time   `json:"revealed_at,omitempty"`
}

// MinerStatsView is the read-only projection of a miner's ledger entry.
// Unseen miners get zeroed defaults.
type MinerStatsView struct {
	Miner          string `json:"miner"`
	TotalSessions  uint64 `json:"total_sessions"`
	TotalOresMined uint64 `json:"total_ores_mined"`
	Reputation     uint64 `json:"reputation"`
	IsVerified     bool   `json:"is_verified"`
}

// RevealResult reports a successful settlement
type RevealResult struct {
	ClaimID    ClaimID     `json:"claim_id"`
	SessionID  SessionID   `json:"session_id"`
	Miner      string      `json:"miner"`
	Amounts    ore.Amounts `json:"amounts"`
	TotalValue uint8       `json:"total_value"`
	OreCount   int         `json:"ore_count"`
	SettledAt  time.Time   `json:"settled_at"`
}
