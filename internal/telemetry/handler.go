package telemetry

import (
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/orequest/oreq/internal/messaging"
	"github.com/orequest/oreq/internal/ore"
)

// VerificationFrame is the payload of a minerverified frame
type VerificationFrame struct {
	Miner    string `json:"miner"`
	Verified bool   `json:"verified"`
}

// OreFeedHandler routes rig telemetry frames to the engine
type OreFeedHandler struct {
	logger     *slog.Logger
	onOreMined func(sessionID uint64, oreType ore.Type, amount uint8) error
	onVerified func(miner string, verified bool) error
}

// NewOreFeedHandler creates a new ore feed handler
func NewOreFeedHandler(logger *slog.Logger) *OreFeedHandler {
	return &OreFeedHandler{
		logger: logger,
	}
}

// SetOreMinedHandler sets the handler for ore-accrual frames
func (h *OreFeedHandler) SetOreMinedHandler(handler func(sessionID uint64, oreType ore.Type, amount uint8) error) {
	h.onOreMined = handler
}

// SetVerifiedHandler sets the handler for miner verification frames
func (h *OreFeedHandler) SetVerifiedHandler(handler func(miner string, verified bool) error) {
	h.onVerified = handler
}

// HandleMessage handles a telemetry frame
func (h *OreFeedHandler) HandleMessage(topic string, data []byte) error {
	switch topic {
	case TopicOreMined:
		var frame messaging.OreTelemetryMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("invalid ore frame: %w", err)
		}

		oreType, err := ore.ParseType(frame.OreType)
		if err != nil {
			return fmt.Errorf("invalid ore frame: %w", err)
		}

		h.logger.Debug("ore accrual frame",
			"session_id", frame.SessionID, "ore_type", frame.OreType, "amount", frame.Amount, "rig_id", frame.RigID)

		if h.onOreMined != nil {
			return h.onOreMined(frame.SessionID, oreType, frame.Amount)
		}

	case TopicMinerVerified:
		var frame VerificationFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("invalid verification frame: %w", err)
		}

		if frame.Miner == "" {
			return fmt.Errorf("verification frame missing miner")
		}

		h.logger.Info("miner verification frame", "miner", frame.Miner, "verified", frame.Verified)

		if h.onVerified != nil {
			return h.onVerified(frame.Miner, frame.Verified)
		}

	default:
		h.logger.Warn("unknown telemetry topic", "topic", topic)
	}

	return nil
}
