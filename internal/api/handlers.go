package api

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/orequest/oreq/internal/engine"
	"github.com/orequest/oreq/internal/ore"
	"github.com/orequest/oreq/internal/verify"
)

// Request and response bodies

type startSessionRequest struct {
	Miner string `json:"miner"`
}

type startSessionResponse struct {
	SessionID engine.SessionID `json:"session_id"`
}

type recordMiningEventRequest struct {
	OreType string `json:"ore_type"`
	Amount  uint8  `json:"amount"`
}

type endSessionRequest struct {
	Miner string `json:"miner"`
}

type createClaimRequest struct {
	Claimer    string `json:"claimer"`
	Commitment string `json:"commitment"`
	Sealed     string `json:"sealed,omitempty"` // base64, optional
}

type createClaimResponse struct {
	ClaimID engine.ClaimID `json:"claim_id"`
}

type amountsBody struct {
	Gold     uint8 `json:"gold"`
	Emerald  uint8 `json:"emerald"`
	Ruby     uint8 `json:"ruby"`
	Sapphire uint8 `json:"sapphire"`
	Diamond  uint8 `json:"diamond"`
}

func (b amountsBody) vector() ore.Amounts {
	var a ore.Amounts
	a[ore.Gold] = b.Gold
	a[ore.Emerald] = b.Emerald
	a[ore.Ruby] = b.Ruby
	a[ore.Sapphire] = b.Sapphire
	a[ore.Diamond] = b.Diamond
	return a
}

type revealClaimRequest struct {
	Claimer    string      `json:"claimer"`
	Amounts    amountsBody `json:"amounts"`
	TotalValue uint8       `json:"total_value"`
	Salt       string      `json:"salt"` // hex, 32 bytes
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handlers

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	id, err := s.engine.StartSession(r.Context(), req.Miner)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, startSessionResponse{SessionID: id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	view, err := s.engine.GetSession(r.Context(), engine.SessionID(id))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRecordMiningEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req recordMiningEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	oreType, err := ore.ParseType(req.OreType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.engine.RecordMiningEvent(r.Context(), engine.SessionID(id), oreType, req.Amount); err != nil {
		s.writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := s.engine.EndSession(r.Context(), engine.SessionID(id), req.Miner); err != nil {
		s.writeEngineError(w, err)
		return
	}

	view, err := s.engine.GetSession(r.Context(), engine.SessionID(id))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	commitment, err := verify.ParseCommitment(req.Commitment)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var sealed []byte
	if req.Sealed != "" {
		sealed, err = base64.StdEncoding.DecodeString(req.Sealed)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sealed blob: %w", err))
			return
		}
	}

	claimID, err := s.engine.CreateClaim(r.Context(), engine.SessionID(id), req.Claimer, commitment, sealed)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createClaimResponse{ClaimID: claimID})
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	view, err := s.engine.GetClaim(r.Context(), engine.ClaimID(id))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRevealClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req revealClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	salt, err := hex.DecodeString(req.Salt)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid salt hex: %w", err))
		return
	}
	if len(salt) != verify.SaltSize {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid salt length: %d", len(salt)))
		return
	}

	reveal := verify.Reveal{
		Amounts:    req.Amounts.vector(),
		TotalValue: req.TotalValue,
	}
	copy(reveal.Salt[:], salt)

	result, err := s.engine.RevealClaim(r.Context(), engine.ClaimID(id), req.Claimer, reveal)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	miner := mux.Vars(r)["miner"]

	stats := s.engine.GetStats(r.Context(), miner)
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeEngineError maps engine sentinel errors to HTTP status codes
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrAlreadyActive),
		errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrSessionStillActive),
		errors.Is(err, engine.ErrAlreadyRevealed):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrVerificationFailed):
		status = http.StatusUnprocessableEntity
	}

	s.writeError(w, status, err)
}
