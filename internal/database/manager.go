// Package database provides unified database management for the OreQuest engine.
// It coordinates operations across PostgreSQL, Redis, and InfluxDB databases.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/orequest/oreq/internal/database/influx"
	"github.com/orequest/oreq/internal/database/postgres"
	"github.com/orequest/oreq/internal/database/redis"
	"github.com/orequest/oreq/pkg/circuit"
	"github.com/orequest/oreq/pkg/errors"
	"github.com/orequest/oreq/pkg/retry"
)

// Manager coordinates all database operations across PostgreSQL, Redis, and InfluxDB
type Manager struct {
	Postgres *postgres.Client
	Redis    *redis.Client
	Influx   *influx.Client

	// Repositories
	Sessions     *postgres.SessionRepository
	Claims       *postgres.ClaimRepository
	Stats        *postgres.StatsRepository
	MiningEvents *postgres.MiningEventRepository

	// Error handling
	circuitBreaker *circuit.Breaker
	retryConfig    *retry.Config
}

// Config holds configuration for all database systems
type Config struct {
	Postgres *postgres.Config
	Redis    *redis.Config
	Influx   *influx.Config
}

// NewManager creates a new database manager with all connections
func NewManager(cfg *Config) (*Manager, error) {
	// Initialize PostgreSQL
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDatabase, "postgres_connection",
			"failed to connect to PostgreSQL database")
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		if closeErr := pgClient.Close(); closeErr != nil {
			// Wrap both errors
			origErr := errors.Wrap(err, errors.ErrorTypeDatabase, "redis_connection",
				"failed to connect to Redis database")
			closeErr = errors.Wrap(closeErr, errors.ErrorTypeDatabase, "postgres_cleanup",
				"failed to close PostgreSQL connection during error cleanup")
			return nil, errors.New(errors.ErrorTypeDatabase, "connection_failure",
				"multiple database connection failures").
				WithContext("redis_error", origErr.Error()).
				WithContext("postgres_cleanup_error", closeErr.Error())
		}
		return nil, errors.Wrap(err, errors.ErrorTypeDatabase, "redis_connection",
			"failed to connect to Redis database")
	}

	// Initialize InfluxDB
	influxClient, err := influx.NewClient(cfg.Influx)
	if err != nil {
		var closeErrs []error
		if closeErr := pgClient.Close(); closeErr != nil {
			closeErrs = append(closeErrs, closeErr)
		}
		if closeErr := redisClient.Close(); closeErr != nil {
			closeErrs = append(closeErrs, closeErr)
		}

		origErr := errors.Wrap(err, errors.ErrorTypeDatabase, "influx_connection",
			"failed to connect to InfluxDB database")

		if len(closeErrs) > 0 {
			return nil, origErr.WithContext("cleanup_errors", fmt.Sprintf("%v", closeErrs))
		}
		return nil, origErr
	}

	// Configure error handling
	cbConfig := &circuit.Config{
		MaxFailures:     3,
		SuccessRequired: 2,
		Timeout:         30 * time.Second,
		ResetTimeout:    60 * time.Second,
	}

	// Create repositories
	sessions := postgres.NewSessionRepository(pgClient.DB())
	claims := postgres.NewClaimRepository(pgClient.DB())
	stats := postgres.NewStatsRepository(pgClient.DB())
	miningEvents := postgres.NewMiningEventRepository(pgClient.DB())

	return &Manager{
		Postgres:       pgClient,
		Redis:          redisClient,
		Influx:         influxClient,
		Sessions:       sessions,
		Claims:         claims,
		Stats:          stats,
		MiningEvents:   miningEvents,
		circuitBreaker: circuit.New(cbConfig),
		retryConfig:    retry.DatabaseConfig(),
	}, nil
}

// Close closes all database connections
func (m *Manager) Close() error {
	var errs []error

	if err := m.Postgres.Close(); err != nil {
		errs = append(errs, fmt.Errorf("PostgreSQL close error: %w", err))
	}

	if err := m.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close error: %w", err))
	}

	m.Influx.Close()

	if len(errs) > 0 {
		return fmt.Errorf("database close errors: %v", errs)
	}

	return nil
}

// Health checks the health of all database connections
func (m *Manager) Health(ctx context.Context) error {
	if err := m.Postgres.Health(ctx); err != nil {
		return fmt.Errorf("PostgreSQL health check failed: %w", err)
	}

	if err := m.Redis.Health(ctx); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	if err := m.Influx.Health(ctx); err != nil {
		return fmt.Errorf("InfluxDB health check failed: %w", err)
	}

	return nil
}

// High-level operations that coordinate across multiple databases

// ArchiveSessionStarted records a session start across all relevant databases
func (m *Manager) ArchiveSessionStarted(ctx context.Context, session *postgres.Session) error {
	return m.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			// Store in PostgreSQL for persistence (critical operation)
			if err := m.Sessions.CreateSession(ctx, session); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_session_start",
					"failed to store session in PostgreSQL").
					WithContext("session_id", session.SessionID).
					WithContext("miner", session.Miner)
			}

			if err := m.Stats.ApplySessionStarted(ctx, session.Miner, session.StartedAt); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_session_start",
					"failed to update miner stats in PostgreSQL").
					WithContext("miner", session.Miner)
			}

			// Record metrics in InfluxDB (best effort)
			m.Influx.WriteSessionMetric(session.Miner, uint64(session.SessionID), "started", 0)

			// Cache the active session in Redis (best effort, don't fail on error)
			if err := m.Redis.SetActiveSession(ctx, session.Miner, session, 24*time.Hour); err != nil {
				redisErr := errors.Wrap(err, errors.ErrorTypeDatabase, "redis_session_cache",
					"failed to cache active session in Redis (non-critical)")
				redisErr.Retryable = false
				fmt.Printf("Warning: %v\n", redisErr)
			}

			return nil
		})
	})
}

// ArchiveOreMined records a single ore discovery
func (m *Manager) ArchiveOreMined(ctx context.Context, event *postgres.MiningEvent) error {
	return m.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			if err := m.MiningEvents.CreateMiningEvent(ctx, event); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_ore_mined",
					"failed to store mining event in PostgreSQL").
					WithContext("session_id", event.SessionID).
					WithContext("ore_type", event.OreType)
			}

			// Record metrics in InfluxDB (best effort)
			m.Influx.WriteOreMinedMetric(event.Miner, uint64(event.SessionID), event.OreType, uint8(event.Amount))

			return nil
		})
	})
}

// ArchiveSessionEnded records the end of a mining session
func (m *Manager) ArchiveSessionEnded(ctx context.Context, sessionID int64, miner string, totalMined int16, endedAt time.Time) error {
	return m.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			if err := m.Sessions.MarkSessionEnded(ctx, sessionID, totalMined, endedAt); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_session_end",
					"failed to mark session ended in PostgreSQL").
					WithContext("session_id", sessionID)
			}

			// Record metrics in InfluxDB (best effort)
			m.Influx.WriteSessionMetric(miner, uint64(sessionID), "ended", uint8(totalMined))

			// Drop the active-session cache entry (best effort)
			if err := m.Redis.DeleteActiveSession(ctx, miner); err != nil {
				redisErr := errors.Wrap(err, errors.ErrorTypeDatabase, "redis_session_evict",
					"failed to evict active session from Redis (non-critical)")
				redisErr.Retryable = false
				fmt.Printf("Warning: %v\n", redisErr)
			}

			return nil
		})
	})
}

// ArchiveClaimCreated records a new hidden claim
func (m *Manager) ArchiveClaimCreated(ctx context.Context, claim *postgres.Claim) error {
	return m.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			if err := m.Claims.CreateClaim(ctx, claim); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_claim_create",
					"failed to store claim in PostgreSQL").
					WithContext("claim_id", claim.ClaimID).
					WithContext("session_id", claim.SessionID)
			}

			// Cache the commitment for quick lookups (best effort)
			if err := m.Redis.SetClaimCommitment(ctx, uint64(claim.ClaimID), claim.Commitment, 7*24*time.Hour); err != nil {
				redisErr := errors.Wrap(err, errors.ErrorTypeDatabase, "redis_commitment_cache",
					"failed to cache claim commitment in Redis (non-critical)")
				redisErr.Retryable = false
				fmt.Printf("Warning: %v\n", redisErr)
			}

			return nil
		})
	})
}

// ArchiveClaimRevealed records a settled claim and credits the miner
func (m *Manager) ArchiveClaimRevealed(ctx context.Context, claim *postgres.Claim, oreCount int64) error {
	return m.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			if err := m.Claims.RevealClaim(ctx, claim); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_claim_reveal",
					"failed to store revealed claim in PostgreSQL").
					WithContext("claim_id", claim.ClaimID)
			}

			if err := m.Sessions.MarkSessionSettled(ctx, claim.SessionID); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_claim_reveal",
					"failed to mark session settled in PostgreSQL").
					WithContext("session_id", claim.SessionID)
			}

			if err := m.Stats.ApplySettlement(ctx, claim.Claimer, oreCount); err != nil {
				return errors.Wrap(err, errors.ErrorTypeDatabase, "archive_claim_reveal",
					"failed to credit miner stats in PostgreSQL").
					WithContext("miner", claim.Claimer)
			}

			// Record metrics in InfluxDB (best effort)
			totalValue := uint8(0)
			if claim.TotalValue != nil {
				totalValue = uint8(*claim.TotalValue)
			}
			m.Influx.WriteRevealMetric(claim.Claimer, uint64(claim.ClaimID), true, oreCount, totalValue)
			if claim.RevealedAt != nil && !claim.CreatedAt.IsZero() {
				m.Influx.WriteSettlementLatencyMetric(claim.Claimer, uint64(claim.ClaimID), claim.RevealedAt.Sub(claim.CreatedAt))
			}

			// Drop the commitment cache entry and refresh stats cache (best effort)
			if err := m.Redis.DeleteClaimCommitment(ctx, uint64(claim.ClaimID)); err != nil {
				redisErr := errors.Wrap(err, errors.ErrorTypeDatabase, "redis_commitment_evict",
					"failed to evict claim commitment from Redis (non-critical)")
				redisErr.Retryable = false
				fmt.Printf("Warning: %v\n", redisErr)
			}

			return nil
		})
	})
}

// GetMinerWithStats retrieves miner statistics with cache acceleration
func (m *Manager) GetMinerWithStats(ctx context.Context, miner string) (*MinerWithStats, error) {
	// Try the Redis cache first
	cached := &postgres.MinerStats{}
	if err := m.Redis.GetMinerStats(ctx, miner, cached); err == nil {
		return &MinerWithStats{Stats: cached, FromCache: true}, nil
	}

	// Fall back to PostgreSQL
	stats, err := m.Stats.GetStats(ctx, miner)
	if err != nil {
		return nil, fmt.Errorf("failed to get miner stats: %w", err)
	}

	// Refill the cache (best effort)
	if err := m.Redis.SetMinerStats(ctx, miner, stats, 5*time.Minute); err != nil {
		_ = err
	}

	return &MinerWithStats{Stats: stats}, nil
}

// GetEngineOverview retrieves aggregate engine activity statistics
func (m *Manager) GetEngineOverview(ctx context.Context) (*EngineOverview, error) {
	// Recent reveals from PostgreSQL
	recentReveals, err := m.Claims.GetRecentReveals(ctx, 10, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent reveals: %w", err)
	}

	// Session counters from Redis (if tracked)
	activeSessions, _ := m.Redis.GetCounter(ctx, "active_sessions")

	return &EngineOverview{
		ActiveSessions: activeSessions,
		RecentReveals:  recentReveals,
		LastUpdated:    time.Now(),
	}, nil
}

// StartPeriodicTasks starts background tasks for database maintenance
func (m *Manager) StartPeriodicTasks(ctx context.Context) {
	// Flush InfluxDB writes every 10 seconds
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Influx.Flush()
			}
		}
	}()

	// Write engine statistics every minute
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				activeSessions, _ := m.Redis.GetCounter(ctx, "active_sessions")
				pendingClaims, _ := m.Redis.GetCounter(ctx, "pending_claims")
				settledClaims, _ := m.Redis.GetCounter(ctx, "settled_claims")
				trackedMiners, _ := m.Redis.GetCounter(ctx, "tracked_miners")

				m.Influx.WriteEngineStatsMetric(activeSessions, pendingClaims, settledClaims, trackedMiners)
			}
		}
	}()
}

// Data structures

// MinerWithStats combines persisted miner statistics with cache provenance
type MinerWithStats struct {
	Stats     *postgres.MinerStats
	FromCache bool
}

// EngineOverview represents aggregate engine activity
type EngineOverview struct {
	ActiveSessions int64
	RecentReveals  []*postgres.Claim
	LastUpdated    time.Time
}
