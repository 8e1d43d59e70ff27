// Package events defines the durable event records emitted by the OreQuest
// engine, one per successful state transition, plus the sinks that carry
// them: a bbolt-backed journal for durability and a Kafka publisher for
// external consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/orequest/oreq/internal/ore"
)

// Type identifies the kind of state transition an event records.
// Names mirror the external contract surface.
type Type string

const (
	// TypeSessionStarted records a new mining session
	TypeSessionStarted Type = "MiningSessionStarted"
	// TypeOreMined records an ore accrual during an active session
	TypeOreMined Type = "OreMined"
	// TypeSessionEnded records the close of a mining session
	TypeSessionEnded Type = "MiningSessionEnded"
	// TypeClaimCreated records a hidden claim commitment
	TypeClaimCreated Type = "OreClaimCreated"
	// TypeClaimRevealed records a successful reveal with plaintext amounts
	TypeClaimRevealed Type = "OreClaimRevealed"
)

// Event is one durable record. Seq is assigned by the engine and is
// strictly increasing across all events of one engine instance.
type Event struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Miner     string `json:"miner,omitempty"`
	SessionID uint64 `json:"session_id,omitempty"`
	ClaimID   uint64 `json:"claim_id,omitempty"`

	// OreMined payload
	OreType string `json:"ore_type,omitempty"`
	Amount  uint8  `json:"amount,omitempty"`

	// SessionEnded payload
	TotalMined uint8 `json:"total_mined,omitempty"`

	// ClaimCreated payload
	Commitment string `json:"commitment,omitempty"`

	// ClaimRevealed payload: the now-plaintext breakdown
	Amounts    *ore.Amounts `json:"amounts,omitempty"`
	TotalValue uint8        `json:"total_value,omitempty"`
}

// New creates an event with a fresh ID and the current timestamp.
// Seq is filled in by the emitting engine.
func New(evType Type) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      evType,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal encodes the event as JSON
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event from JSON
func Unmarshal(data []byte) (*Event, error) {
	ev := &Event{}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Sink receives events from the engine
type Sink interface {
	Emit(ctx context.Context, ev *Event) error
	Close() error
}

// NopSink discards all events
type NopSink struct{}

// Emit implements Sink
func (NopSink) Emit(context.Context, *Event) error { return nil }

// Close implements Sink
func (NopSink) Close() error { return nil }

// MultiSink fans an event out to several sinks in order. Every sink sees
// every event; the first error is returned after all sinks ran.
type MultiSink struct {
	sinks []Sink
}

// Multi combines sinks into one
func Multi(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit implements Sink
func (m *MultiSink) Emit(ctx context.Context, ev *Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close implements Sink
func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CaptureSink records events in memory. Test helper.
type CaptureSink struct {
	mu     sync.Mutex
	events []*Event
}

// NewCapture creates an in-memory capture sink
func NewCapture() *CaptureSink {
	return &CaptureSink{}
}

// Emit implements Sink
func (c *CaptureSink) Emit(_ context.Context, ev *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *ev
	c.events = append(c.events, &clone)
	return nil
}

// Close implements Sink
func (c *CaptureSink) Close() error { return nil }

// Events returns a snapshot of the captured events
func (c *CaptureSink) Events() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}

// ByType returns the captured events of one type
func (c *CaptureSink) ByType(evType Type) []*Event {
	var out []*Event
	for _, ev := range c.Events() {
		if ev.Type == evType {
			out = append(out, ev)
		}
	}
	return out
}
