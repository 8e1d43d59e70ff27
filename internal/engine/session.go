package engine

import (
	"context"
	"sync"
	"time"

	"github.com/orequest/oreq/internal/events"
	"github.com/orequest/oreq/internal/ore"
)

// session is a miner's bounded mining period. Mutations take s.mu; the
// registry lock is never held while waiting on it.
type session struct {
	mu sync.Mutex

	id      SessionID
	miner   string
	active  bool
	settled bool
	start   time.Time
	end     time.Time
	claimID ClaimID // 0 while unclaimed

	// totalMined is the opaque accrual counter, bounded to uint8 by the
	// external claim format. Never decreases.
	totalMined uint8
}

func (s *session) view() SessionView {
	v := SessionView{
		ID:         s.id,
		Miner:      s.miner,
		TotalMined: s.totalMined,
		IsActive:   s.active,
		IsSettled:  s.settled,
		StartTime:  s.start,
		ClaimID:    s.claimID,
	}
	// endTime is set if and only if the session is no longer active
	if !s.active {
		end := s.end
		v.EndTime = &end
	}
	return v
}

// StartSession opens a new mining session for the miner. A miner holds at
// most one active session at a time.
func (e *Engine) StartSession(ctx context.Context, miner string) (SessionID, error) {
	if miner == "" {
		return 0, ErrUnauthorized
	}

	if e.policy.RequireVerifiedMiners && !e.minerVerified(miner) {
		return 0, ErrUnauthorized
	}

	e.mu.Lock()
	if _, exists := e.activeByMiner[miner]; exists {
		e.mu.Unlock()
		return 0, ErrAlreadyActive
	}

	e.lastSessionID++
	s := &session{
		id:     SessionID(e.lastSessionID),
		miner:  miner,
		active: true,
		start:  time.Now().UTC(),
	}
	e.sessions[s.id] = s
	e.activeByMiner[miner] = s.id
	e.mu.Unlock()

	e.statsOnSessionStarted(miner)

	ev := events.New(events.TypeSessionStarted)
	ev.Miner = miner
	ev.SessionID = uint64(s.id)
	e.emit(ctx, ev)

	e.logger.LogSessionStarted(uint64(s.id), miner)
	return s.id, nil
}

// RecordMiningEvent accrues ore on an active session. The per-ore amounts
// stay with the eventual claim; this only advances the opaque counter.
func (e *Engine) RecordMiningEvent(ctx context.Context, sessionID SessionID, oreType ore.Type, amount uint8) error {
	if amount == 0 || !oreType.Valid() {
		return ErrInvalidAmount
	}

	s, ok := e.lookupSession(sessionID)
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNotActive
	}

	// Reject rather than truncate when the counter would overflow
	if int(s.totalMined)+int(amount) > ore.MaxAmount {
		return ErrInvalidAmount
	}
	s.totalMined += amount

	ev := events.New(events.TypeOreMined)
	ev.Miner = s.miner
	ev.SessionID = uint64(s.id)
	ev.OreType = oreType.String()
	ev.Amount = amount
	e.emit(ctx, ev)

	e.logger.LogOreMined(uint64(s.id), oreType.String(), amount)
	return nil
}

// EndSession closes an active session. Only the owning miner may end it.
func (e *Engine) EndSession(ctx context.Context, sessionID SessionID, caller string) error {
	s, ok := e.lookupSession(sessionID)
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.miner != caller {
		return ErrUnauthorized
	}
	if !s.active {
		return ErrNotActive
	}

	s.active = false
	s.end = time.Now().UTC()

	e.mu.Lock()
	delete(e.activeByMiner, s.miner)
	e.mu.Unlock()

	ev := events.New(events.TypeSessionEnded)
	ev.Miner = s.miner
	ev.SessionID = uint64(s.id)
	ev.TotalMined = s.totalMined
	e.emit(ctx, ev)

	e.logger.LogSessionEnded(uint64(s.id), s.miner, s.totalMined)
	return nil
}

// GetSession returns a consistent snapshot of a session
func (e *Engine) GetSession(_ context.Context, sessionID SessionID) (SessionView, error) {
	s, ok := e.lookupSession(sessionID)
	if !ok {
		return SessionView{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}
