// Package engine implements the OreQuest session and claim lifecycle with
// commit-reveal verification. It owns the session store, the claim
// registry, and the miner stats ledger, and is the single entry point for
// every external operation.
//
// Ordering enforced per miner: start -> mine* -> end -> create claim ->
// reveal claim. Each successful mutation emits one durable, ordered event.
package engine

import (
	"context"
	"sync"

	"github.com/orequest/oreq/internal/events"
	"github.com/orequest/oreq/internal/verify"
	"github.com/orequest/oreq/pkg/log"
)

// Engine coordinates sessions, claims, and miner stats behind a single
// facade. State lives in owned maps so independent instances can coexist.
type Engine struct {
	// mu guards the registries and id counters. Entity locks are never
	// acquired while holding mu; mutations fetch under mu, release, then
	// lock the entity.
	mu            sync.RWMutex
	sessions      map[SessionID]*session
	claims        map[ClaimID]*claim
	activeByMiner map[string]SessionID
	lastSessionID uint64
	lastClaimID   uint64

	statsMu sync.Mutex
	stats   map[string]*minerStats

	seqMu    sync.Mutex
	eventSeq uint64

	verifier verify.Verifier
	sink     events.Sink
	logger   *log.Logger
	policy   Policy
}

// Option configures an Engine
type Option func(*Engine)

// WithSink sets the event sink receiving one event per state transition
func WithSink(sink events.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithLogger sets the engine logger
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPolicy sets the deployment policy knobs
func WithPolicy(policy Policy) Option {
	return func(e *Engine) { e.policy = policy }
}

// WithEventSeq seeds the event sequence counter, so an engine restarted
// on top of an existing journal continues the sequence instead of
// colliding with already-journaled events.
func WithEventSeq(seq uint64) Option {
	return func(e *Engine) { e.eventSeq = seq }
}

// New creates an engine with the given verifier adapter
func New(verifier verify.Verifier, opts ...Option) *Engine {
	e := &Engine{
		sessions:      make(map[SessionID]*session),
		claims:        make(map[ClaimID]*claim),
		activeByMiner: make(map[string]SessionID),
		stats:         make(map[string]*minerStats),
		verifier:      verifier,
		sink:          events.NopSink{},
		logger:        log.New("oreq-engine", "dev", "error", "text"),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.WithComponent("engine")
	return e
}

// emit assigns the next sequence number and hands the event to the sink.
// The sequencing lock stays held across the sink call: releasing it
// between numbering and appending lets two transitions reach the durable
// log in inverted order, and the journal then rejects the lower sequence.
// Sink failures do not roll back the already-committed transition; they
// are surfaced in the log.
func (e *Engine) emit(ctx context.Context, ev *events.Event) {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()

	e.eventSeq++
	ev.Seq = e.eventSeq

	if err := e.sink.Emit(ctx, ev); err != nil {
		e.logger.Error("failed to emit event",
			"event_id", ev.ID,
			"event_type", string(ev.Type),
			"seq", ev.Seq,
			"error", err,
		)
	}
}

// lookupSession fetches a session without holding the registry lock
func (e *Engine) lookupSession(id SessionID) (*session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

// lookupClaim fetches a claim without holding the registry lock
func (e *Engine) lookupClaim(id ClaimID) (*claim, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.claims[id]
	return c, ok
}
