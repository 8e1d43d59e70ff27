package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRepository handles session-related database operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession records a newly started mining session
func (r *SessionRepository) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (session_id, miner, total_mined, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		session.SessionID, session.Miner, session.TotalMined, session.Status,
		session.StartedAt, now, now,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

// GetSession retrieves a session by its engine-assigned identifier
func (r *SessionRepository) GetSession(ctx context.Context, sessionID int64) (*Session, error) {
	query := `
		SELECT id, session_id, miner, total_mined, status, started_at, ended_at, created_at, updated_at
		FROM sessions WHERE session_id = $1`

	session := &Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.SessionID, &session.Miner, &session.TotalMined,
		&session.Status, &session.StartedAt, &session.EndedAt,
		&session.CreatedAt, &session.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// MarkSessionEnded records the end of a session and its final ore count
func (r *SessionRepository) MarkSessionEnded(ctx context.Context, sessionID int64, totalMined int16, endedAt time.Time) error {
	query := `UPDATE sessions SET status = 'ended', total_mined = $1, ended_at = $2, updated_at = $3 WHERE session_id = $4`

	_, err := r.db.ExecContext(ctx, query, totalMined, endedAt, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session ended: %w", err)
	}

	return nil
}

// MarkSessionSettled records that the session's claim was revealed
func (r *SessionRepository) MarkSessionSettled(ctx context.Context, sessionID int64) error {
	query := `UPDATE sessions SET status = 'settled', updated_at = $1 WHERE session_id = $2`

	_, err := r.db.ExecContext(ctx, query, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session settled: %w", err)
	}

	return nil
}

// GetSessionsByMiner retrieves sessions for a specific miner with pagination
func (r *SessionRepository) GetSessionsByMiner(ctx context.Context, miner string, limit, offset int) ([]*Session, error) {
	query := `
		SELECT id, session_id, miner, total_mined, status, started_at, ended_at, created_at, updated_at
		FROM sessions
		WHERE miner = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, miner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			_ = err // Ignore close errors for now
		}
	}()

	var sessions []*Session
	for rows.Next() {
		session := &Session{}
		err := rows.Scan(
			&session.ID, &session.SessionID, &session.Miner, &session.TotalMined,
			&session.Status, &session.StartedAt, &session.EndedAt,
			&session.CreatedAt, &session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// ClaimRepository handles claim-related database operations
type ClaimRepository struct {
	db *sql.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateClaim records a hidden claim. Only the commitment is stored;
// the breakdown columns stay NULL until RevealClaim.
func (r *ClaimRepository) CreateClaim(ctx context.Context, claim *Claim) error {
	query := `
		INSERT INTO claims (claim_id, session_id, claimer, commitment, is_revealed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		claim.ClaimID, claim.SessionID, claim.Claimer, claim.Commitment,
		false, claim.CreatedAt,
	).Scan(&claim.ID)

	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// RevealClaim fills in the verified ore breakdown for a settled claim
func (r *ClaimRepository) RevealClaim(ctx context.Context, claim *Claim) error {
	query := `
		UPDATE claims
		SET gold_amount = $1, emerald_amount = $2, ruby_amount = $3,
		    sapphire_amount = $4, diamond_amount = $5, total_value = $6,
		    is_revealed = true, revealed_at = $7
		WHERE claim_id = $8`

	_, err := r.db.ExecContext(ctx, query,
		claim.GoldAmount, claim.EmeraldAmount, claim.RubyAmount,
		claim.SapphireAmount, claim.DiamondAmount, claim.TotalValue,
		claim.RevealedAt, claim.ClaimID,
	)
	if err != nil {
		return fmt.Errorf("failed to reveal claim: %w", err)
	}

	return nil
}

// GetClaim retrieves a claim by its engine-assigned identifier
func (r *ClaimRepository) GetClaim(ctx context.Context, claimID int64) (*Claim, error) {
	query := `
		SELECT id, claim_id, session_id, claimer, commitment,
		       gold_amount, emerald_amount, ruby_amount, sapphire_amount, diamond_amount,
		       total_value, is_revealed, created_at, revealed_at
		FROM claims WHERE claim_id = $1`

	claim := &Claim{}
	err := r.db.QueryRowContext(ctx, query, claimID).Scan(
		&claim.ID, &claim.ClaimID, &claim.SessionID, &claim.Claimer, &claim.Commitment,
		&claim.GoldAmount, &claim.EmeraldAmount, &claim.RubyAmount,
		&claim.SapphireAmount, &claim.DiamondAmount,
		&claim.TotalValue, &claim.IsRevealed, &claim.CreatedAt, &claim.RevealedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("claim not found")
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return claim, nil
}

// GetRecentReveals retrieves recently revealed claims with pagination
func (r *ClaimRepository) GetRecentReveals(ctx context.Context, limit, offset int) ([]*Claim, error) {
	query := `
		SELECT id, claim_id, session_id, claimer, commitment,
		       gold_amount, emerald_amount, ruby_amount, sapphire_amount, diamond_amount,
		       total_value, is_revealed, created_at, revealed_at
		FROM claims
		WHERE is_revealed = true
		ORDER BY revealed_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			_ = err // Ignore close errors for now
		}
	}()

	var claims []*Claim
	for rows.Next() {
		claim := &Claim{}
		err := rows.Scan(
			&claim.ID, &claim.ClaimID, &claim.SessionID, &claim.Claimer, &claim.Commitment,
			&claim.GoldAmount, &claim.EmeraldAmount, &claim.RubyAmount,
			&claim.SapphireAmount, &claim.DiamondAmount,
			&claim.TotalValue, &claim.IsRevealed, &claim.CreatedAt, &claim.RevealedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}

	return claims, nil
}

// StatsRepository handles miner statistics database operations
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ApplySessionStarted bumps the session counter for a miner, inserting
// the stats row on first contact.
func (r *StatsRepository) ApplySessionStarted(ctx context.Context, miner string, startedAt time.Time) error {
	query := `
		INSERT INTO miner_stats (miner, total_sessions, total_ores_mined, reputation, is_verified, updated_at, last_session_at)
		VALUES ($1, 1, 0, 0, false, $2, $3)
		ON CONFLICT (miner) DO UPDATE
		SET total_sessions = miner_stats.total_sessions + 1, updated_at = $2, last_session_at = $3`

	_, err := r.db.ExecContext(ctx, query, miner, time.Now(), startedAt)
	if err != nil {
		return fmt.Errorf("failed to apply session start: %w", err)
	}

	return nil
}

// ApplySettlement credits a miner's ore total and reputation after a
// successful reveal.
func (r *StatsRepository) ApplySettlement(ctx context.Context, miner string, oreCount int64) error {
	query := `
		INSERT INTO miner_stats (miner, total_sessions, total_ores_mined, reputation, is_verified, updated_at)
		VALUES ($1, 0, $2, 1, false, $3)
		ON CONFLICT (miner) DO UPDATE
		SET total_ores_mined = miner_stats.total_ores_mined + $2,
		    reputation = miner_stats.reputation + 1,
		    updated_at = $3`

	_, err := r.db.ExecContext(ctx, query, miner, oreCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to apply settlement: %w", err)
	}

	return nil
}

// SetVerified updates a miner's verification flag
func (r *StatsRepository) SetVerified(ctx context.Context, miner string, verified bool) error {
	query := `
		INSERT INTO miner_stats (miner, total_sessions, total_ores_mined, reputation, is_verified, updated_at)
		VALUES ($1, 0, 0, 0, $2, $3)
		ON CONFLICT (miner) DO UPDATE
		SET is_verified = $2, updated_at = $3`

	_, err := r.db.ExecContext(ctx, query, miner, verified, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set verified flag: %w", err)
	}

	return nil
}

// GetStats retrieves aggregated statistics for a miner
func (r *StatsRepository) GetStats(ctx context.Context, miner string) (*MinerStats, error) {
	query := `
		SELECT miner, total_sessions, total_ores_mined, reputation, is_verified, updated_at, last_session_at
		FROM miner_stats WHERE miner = $1`

	stats := &MinerStats{}
	err := r.db.QueryRowContext(ctx, query, miner).Scan(
		&stats.Miner, &stats.TotalSessions, &stats.TotalOresMined,
		&stats.Reputation, &stats.IsVerified, &stats.UpdatedAt, &stats.LastSessionAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("miner stats not found")
		}
		return nil, fmt.Errorf("failed to get miner stats: %w", err)
	}

	return stats, nil
}

// MiningEventRepository handles per-ore mining event records
type MiningEventRepository struct {
	db *sql.DB
}

// NewMiningEventRepository creates a new mining event repository
func NewMiningEventRepository(db *sql.DB) *MiningEventRepository {
	return &MiningEventRepository{db: db}
}

// CreateMiningEvent records a single ore discovery
func (r *MiningEventRepository) CreateMiningEvent(ctx context.Context, event *MiningEvent) error {
	query := `
		INSERT INTO mining_events (session_id, miner, ore_type, amount, mined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID, event.Miner, event.OreType, event.Amount, event.MinedAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to create mining event: %w", err)
	}

	return nil
}

// GetEventsBySession retrieves ore discoveries for a session
func (r *MiningEventRepository) GetEventsBySession(ctx context.Context, sessionID int64) ([]*MiningEvent, error) {
	query := `
		SELECT id, session_id, miner, ore_type, amount, mined_at
		FROM mining_events
		WHERE session_id = $1
		ORDER BY mined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mining events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			_ = err // Ignore close errors for now
		}
	}()

	var events []*MiningEvent
	for rows.Next() {
		event := &MiningEvent{}
		err := rows.Scan(
			&event.ID, &event.SessionID, &event.Miner,
			&event.OreType, &event.Amount, &event.MinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mining event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mining events: %w", err)
	}

	return events, nil
}
