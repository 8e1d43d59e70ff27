package engine

import "context"

// minerStats is the per-miner ledger entry, updated only on session start
// and successful settlement. isVerified is owned by an out-of-band
// authority and never touched by lifecycle operations.
type minerStats struct {
	totalSessions  uint64
	totalOresMined uint64
	reputation     uint64
	verified       bool
}

// statsEntry returns the ledger entry for a miner, creating it lazily.
// Callers must hold statsMu.
func (e *Engine) statsEntry(miner string) *minerStats {
	st, ok := e.stats[miner]
	if !ok {
		st = &minerStats{}
		e.stats[miner] = st
	}
	return st
}

func (e *Engine) statsOnSessionStarted(miner string) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.statsEntry(miner).totalSessions++
}

// statsOnClaimSettled credits a settled claim. Reputation grows by one
// per settlement regardless of volume, so it is monotone and cannot be
// inflated by splitting ore across reveals of the same session.
func (e *Engine) statsOnClaimSettled(miner string, oreCount uint64) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	st := e.statsEntry(miner)
	st.totalOresMined += oreCount
	st.reputation++
}

func (e *Engine) minerVerified(miner string) bool {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	st, ok := e.stats[miner]
	return ok && st.verified
}

// SetMinerVerified sets the authority-owned verification flag. Fed by the
// authority telemetry feed, not by any miner-facing operation.
func (e *Engine) SetMinerVerified(miner string, verified bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.statsEntry(miner).verified = verified
}

// GetStats returns a miner's ledger entry, zeroed for unseen miners
func (e *Engine) GetStats(_ context.Context, miner string) MinerStatsView {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	v := MinerStatsView{Miner: miner}
	if st, ok := e.stats[miner]; ok {
		v.TotalSessions = st.totalSessions
		v.TotalOresMined = st.totalOresMined
		v.Reputation = st.reputation
		v.IsVerified = st.verified
	}
	return v
}
