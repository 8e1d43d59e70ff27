// Package verify provides the commitment verification seam for the OreQuest
// engine. A claim is stored as a binding-but-hiding commitment; at settlement
// the revealed amounts are checked against it by a pluggable Verifier.
package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/orequest/oreq/internal/ore"
)

// SaltSize is the size in bytes of the blinding salt
const SaltSize = 32

// Commitment is the opaque binding representation of a claim's hidden
// amounts. It is a double-SHA256 digest over the canonical preimage.
type Commitment [chainhash.HashSize]byte

// String returns the hex encoding of the commitment
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// ParseCommitment decodes a hex-encoded commitment
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("invalid commitment hex: %w", err)
	}
	if len(raw) != len(c) {
		return c, fmt.Errorf("invalid commitment length: %d", len(raw))
	}
	copy(c[:], raw)
	return c, nil
}

// Reveal carries the plaintext a claimer discloses at settlement time
type Reveal struct {
	Amounts    ore.Amounts
	TotalValue uint8
	Salt       [SaltSize]byte
}

// Preimage returns the canonical binary encoding committed to:
// salt || amounts (5 bytes, canonical ore order) || totalValue.
func (r Reveal) Preimage() []byte {
	buf := make([]byte, 0, SaltSize+ore.NumTypes+1)
	buf = append(buf, r.Salt[:]...)
	buf = append(buf, r.Amounts[:]...)
	buf = append(buf, r.TotalValue)
	return buf
}

// Commit computes the commitment for a reveal
func Commit(r Reveal) Commitment {
	return Commitment(chainhash.DoubleHashH(r.Preimage()))
}

// Verification failure reasons
var (
	// ErrMismatch indicates the reveal does not reproduce the commitment
	ErrMismatch = errors.New("reveal does not match commitment")
	// ErrTotalValue indicates the claimed total value disagrees with the
	// weighted total-value function of the revealed amounts
	ErrTotalValue = errors.New("total value does not match revealed amounts")
	// ErrTimeout indicates the verifier did not answer within its deadline
	ErrTimeout = errors.New("verification timed out")
)

// Verifier checks whether a reveal is consistent with a prior commitment.
// Implementations may be a deterministic recomputation, a signature check,
// or an external proof-checking service.
type Verifier interface {
	Verify(ctx context.Context, commitment Commitment, reveal Reveal) error
}

// HashVerifier verifies reveals by deterministic recomputation: it
// re-derives the commitment from the revealed plaintext and independently
// recomputes the total-value function.
type HashVerifier struct{}

// NewHashVerifier creates a new hash-recomputation verifier
func NewHashVerifier() *HashVerifier {
	return &HashVerifier{}
}

// Verify implements Verifier
func (v *HashVerifier) Verify(ctx context.Context, commitment Commitment, reveal Reveal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The claimed total must satisfy the fixed weighting before the
	// commitment is even consulted, so a reveal cannot smuggle a total
	// that disagrees with its own amounts.
	if reveal.Amounts.Value() != int(reveal.TotalValue) {
		return ErrTotalValue
	}

	if Commit(reveal) != commitment {
		return ErrMismatch
	}

	return nil
}

// TimeoutVerifier bounds a possibly slow or externally mediated verifier
// with a deadline. A timeout is a verification failure with no side effects.
type TimeoutVerifier struct {
	inner   Verifier
	timeout time.Duration
}

// WithTimeout wraps a verifier with a per-call deadline
func WithTimeout(inner Verifier, timeout time.Duration) *TimeoutVerifier {
	return &TimeoutVerifier{inner: inner, timeout: timeout}
}

// Verify implements Verifier
func (v *TimeoutVerifier) Verify(ctx context.Context, commitment Commitment, reveal Reveal) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- v.inner.Verify(ctx, commitment, reveal)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
