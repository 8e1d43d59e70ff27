// Package log provides structured logging utilities for the OreQuest engine.
// It wraps the standard library's slog package with additional convenience methods.
package log

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with additional context and convenience methods
type Logger struct {
	*slog.Logger
	service string
	version string
}

// New creates a new logger with the specified configuration
func New(service, version, level, format string) *Logger {
	var handler slog.Handler

	// Parse log level
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// Create handler based on format
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	// Create base logger with service context
	baseLogger := slog.New(handler).With(
		"service", service,
		"version", version,
	)

	return &Logger{
		Logger:  baseLogger,
		service: service,
		version: version,
	}
}

// WithContext returns a logger with additional context fields
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	// Add request ID if available
	if reqID := ctx.Value("request_id"); reqID != nil {
		logger = logger.With("request_id", reqID)
	}

	return &Logger{
		Logger:  logger,
		service: l.service,
		version: l.version,
	}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{
		Logger:  l.With(fields...),
		service: l.service,
		version: l.version,
	}
}

// WithComponent returns a logger with a component field
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// WithMiner returns a logger with miner-specific fields
func (l *Logger) WithMiner(miner string) *Logger {
	return l.WithFields("miner", miner)
}

// WithSession returns a logger with session-specific fields
func (l *Logger) WithSession(sessionID uint64) *Logger {
	return l.WithFields("session_id", sessionID)
}

// WithClaim returns a logger with claim-specific fields
func (l *Logger) WithClaim(claimID uint64) *Logger {
	return l.WithFields("claim_id", claimID)
}

// WithError returns a logger with error context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithFields("error", err.Error())
}

// Lifecycle logging helpers

// LogSessionStarted logs the start of a mining session
func (l *Logger) LogSessionStarted(sessionID uint64, miner string) {
	l.Info("mining session started",
		"session_id", sessionID,
		"miner", miner,
	)
}

// LogSessionEnded logs the end of a mining session
func (l *Logger) LogSessionEnded(sessionID uint64, miner string, totalMined uint8) {
	l.Info("mining session ended",
		"session_id", sessionID,
		"miner", miner,
		"total_mined", totalMined,
	)
}

// LogClaimCreated logs creation of a hidden ore claim
func (l *Logger) LogClaimCreated(claimID, sessionID uint64, claimer string) {
	l.Info("ore claim created",
		"claim_id", claimID,
		"session_id", sessionID,
		"claimer", claimer,
	)
}

// LogReveal logs the outcome of a reveal attempt
func (l *Logger) LogReveal(claimID uint64, claimer, status string) {
	l.Info("claim reveal",
		"claim_id", claimID,
		"claimer", claimer,
		"status", status,
	)
}

// LogOreMined logs an ore accrual event (debug level, high volume)
func (l *Logger) LogOreMined(sessionID uint64, oreType string, amount uint8) {
	l.Debug("ore mined",
		"session_id", sessionID,
		"ore_type", oreType,
		"amount", amount,
	)
}

// Connection logging helpers

// LogConnection logs connection events
func (l *Logger) LogConnection(event, remoteAddr string) {
	l.Info("connection event",
		"event", event,
		"remote_addr", remoteAddr,
	)
}
