package engine

import "errors"

// Engine error taxonomy. Every facade operation reports failures through
// these sentinels so callers can branch with errors.Is.
var (
	// ErrNotFound indicates an unknown session or claim id
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the caller is not the owning miner
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyActive indicates the miner already has an active session
	ErrAlreadyActive = errors.New("session already active for miner")

	// ErrNotActive indicates the session has already ended
	ErrNotActive = errors.New("session not active")

	// ErrAlreadyClaimed indicates the session already has a claim
	ErrAlreadyClaimed = errors.New("session already claimed")

	// ErrSessionStillActive indicates a claim was attempted before the
	// session ended
	ErrSessionStillActive = errors.New("session still active")

	// ErrAlreadyRevealed indicates the claim was already revealed
	ErrAlreadyRevealed = errors.New("claim already revealed")

	// ErrInvalidAmount indicates an ore amount or total outside its bounds
	ErrInvalidAmount = errors.New("invalid ore amount")

	// ErrVerificationFailed indicates the reveal does not match the
	// stored commitment. State is left untouched.
	ErrVerificationFailed = errors.New("verification failed")
)
