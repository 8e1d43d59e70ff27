package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orequest/oreq/internal/events"
	"github.com/orequest/oreq/internal/ore"
	"github.com/orequest/oreq/internal/verify"
)

// claim is the hidden-then-revealed record of a session's ore output.
// Amounts exist only inside the commitment until a reveal succeeds.
type claim struct {
	mu sync.Mutex

	id         ClaimID
	sessionID  SessionID
	claimer    string
	commitment verify.Commitment
	sealed     []byte // opaque blob for the verifier adapter, may be nil
	created    time.Time

	revealed   bool
	amounts    ore.Amounts
	totalValue uint8
	revealedAt time.Time
}

func (c *claim) view() ClaimView {
	v := ClaimView{
		ID:         c.id,
		SessionID:  c.sessionID,
		Claimer:    c.claimer,
		Commitment: c.commitment.String(),
		IsRevealed: c.revealed,
		Timestamp:  c.created,
	}
	if c.revealed {
		amounts := c.amounts
		totalValue := c.totalValue
		revealedAt := c.revealedAt
		v.Amounts = &amounts
		v.TotalValue = &totalValue
		v.RevealedAt = &revealedAt
	}
	return v
}

// CreateClaim records a hidden commitment against a session. The session
// must belong to the caller, carry no prior claim, and have ended unless
// policy allows claiming early. The sealed blob is stored opaquely for
// verifier adapters that need a ciphertext alongside the commitment.
func (e *Engine) CreateClaim(ctx context.Context, sessionID SessionID, caller string, commitment verify.Commitment, sealed []byte) (ClaimID, error) {
	s, ok := e.lookupSession(sessionID)
	if !ok {
		return 0, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.miner != caller {
		return 0, ErrUnauthorized
	}
	if s.claimID != 0 {
		return 0, ErrAlreadyClaimed
	}
	if s.active && !e.policy.AllowClaimBeforeEnd {
		return 0, ErrSessionStillActive
	}

	e.mu.Lock()
	e.lastClaimID++
	c := &claim{
		id:         ClaimID(e.lastClaimID),
		sessionID:  s.id,
		claimer:    caller,
		commitment: commitment,
		created:    time.Now().UTC(),
	}
	if len(sealed) > 0 {
		c.sealed = append([]byte(nil), sealed...)
	}
	e.claims[c.id] = c
	e.mu.Unlock()

	s.claimID = c.id

	ev := events.New(events.TypeClaimCreated)
	ev.Miner = caller
	ev.SessionID = uint64(s.id)
	ev.ClaimID = uint64(c.id)
	ev.Commitment = commitment.String()
	e.emit(ctx, ev)

	e.logger.LogClaimCreated(uint64(c.id), uint64(s.id), caller)
	return c.id, nil
}

// RevealClaim settles a claim: the revealed amounts are checked against
// the stored commitment by the verifier adapter, and only on success does
// the claim become plaintext, the session settled (closing it first if
// the claim was made before it ended), and the miner's ledger updated.
// A failed verification leaves all state untouched.
//
// The claim's own lock is held across the verifier call, so a slow
// verifier blocks only this claim, never unrelated sessions or claims.
func (e *Engine) RevealClaim(ctx context.Context, claimID ClaimID, caller string, reveal verify.Reveal) (RevealResult, error) {
	c, ok := e.lookupClaim(claimID)
	if !ok {
		return RevealResult{}, ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.claimer != caller {
		return RevealResult{}, ErrUnauthorized
	}
	if c.revealed {
		return RevealResult{}, ErrAlreadyRevealed
	}

	// The external claim format carries the total as a single uint8, so a
	// vector whose weighted value cannot be represented is malformed
	// rather than merely mismatched.
	if reveal.Amounts.Value() > ore.MaxAmount || reveal.Amounts.Count() > ore.MaxAmount {
		return RevealResult{}, ErrInvalidAmount
	}

	if err := e.verifier.Verify(ctx, c.commitment, reveal); err != nil {
		e.logger.LogReveal(uint64(c.id), caller, "rejected")
		return RevealResult{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	// Verification passed: apply the settlement. The owning session
	// exists by construction; claims are only created against stored
	// sessions.
	s, _ := e.lookupSession(c.sessionID)

	now := time.Now().UTC()
	c.revealed = true
	c.amounts = reveal.Amounts
	c.totalValue = reveal.TotalValue
	c.revealedAt = now

	// Settling closes the session: a settled session is never active. A
	// claim created before the session ended (policy permitting) ends it
	// here, and the close is recorded before the reveal.
	s.mu.Lock()
	wasActive := s.active
	if s.active {
		s.active = false
		s.end = now
	}
	s.settled = true
	totalMined := s.totalMined
	s.mu.Unlock()

	if wasActive {
		e.mu.Lock()
		delete(e.activeByMiner, s.miner)
		e.mu.Unlock()

		ended := events.New(events.TypeSessionEnded)
		ended.Miner = s.miner
		ended.SessionID = uint64(s.id)
		ended.TotalMined = totalMined
		e.emit(ctx, ended)

		e.logger.LogSessionEnded(uint64(s.id), s.miner, totalMined)
	}

	oreCount := reveal.Amounts.Count()
	e.statsOnClaimSettled(caller, uint64(oreCount))

	amounts := reveal.Amounts
	ev := events.New(events.TypeClaimRevealed)
	ev.Miner = caller
	ev.SessionID = uint64(s.id)
	ev.ClaimID = uint64(c.id)
	ev.Amounts = &amounts
	ev.TotalValue = reveal.TotalValue
	e.emit(ctx, ev)

	e.logger.LogReveal(uint64(c.id), caller, "settled")

	return RevealResult{
		ClaimID:    c.id,
		SessionID:  s.id,
		Miner:      caller,
		Amounts:    reveal.Amounts,
		TotalValue: reveal.TotalValue,
		OreCount:   oreCount,
		SettledAt:  now,
	}, nil
}

// GetClaim returns a snapshot of a claim. Hidden fields stay nil until
// the claim is revealed.
func (e *Engine) GetClaim(_ context.Context, claimID ClaimID) (ClaimView, error) {
	c, ok := e.lookupClaim(claimID)
	if !ok {
		return ClaimView{}, ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(), nil
}
