// Package main implements oreqd, the OreQuest engine daemon. It hosts the
// session and claim lifecycle engine, ingests rig telemetry over ZMQ,
// journals every state transition, relays the event stream to Kafka, and
// serves the HTTP facade.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orequest/oreq/internal/api"
	"github.com/orequest/oreq/internal/config"
	"github.com/orequest/oreq/internal/engine"
	"github.com/orequest/oreq/internal/events"
	"github.com/orequest/oreq/internal/messaging"
	"github.com/orequest/oreq/internal/ore"
	"github.com/orequest/oreq/internal/telemetry"
	"github.com/orequest/oreq/internal/verify"
	"github.com/orequest/oreq/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := log.New(cfg.ServiceName, cfg.Version, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting oreqd",
		"version", cfg.Version,
		"listen_addr", cfg.ListenAddr,
		"listen_port", cfg.ListenPort,
		"ore_feed", cfg.OreFeedZMQAddr,
	)

	// Open the event journal
	journal, err := events.OpenJournal(cfg.JournalPath)
	if err != nil {
		logger.WithError(err).Error("failed to open event journal")
		os.Exit(1)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.WithError(err).Error("failed to close event journal")
		}
	}()

	lastSeq, err := journal.LastSeq()
	if err != nil {
		logger.WithError(err).Error("failed to read journal sequence")
		os.Exit(1)
	}
	logger.Info("event journal opened", "path", cfg.JournalPath, "last_seq", lastSeq)

	// Create Kafka client and event publisher
	kafkaClient := messaging.NewKafkaClient(
		cfg.KafkaBrokers,
		logger.Logger,
	)
	publisher := events.NewPublisher(kafkaClient, messaging.TopicEvents)

	// Verifier: deterministic recomputation bounded by a deadline
	verifier := verify.WithTimeout(verify.NewHashVerifier(), cfg.VerifierTimeout)

	// Create the engine. The journal is first in the sink chain so an
	// event is durable before it is relayed.
	eng := engine.New(verifier,
		engine.WithLogger(logger),
		engine.WithSink(events.Multi(journal, publisher)),
		engine.WithPolicy(engine.Policy{
			AllowClaimBeforeEnd:   cfg.AllowClaimBeforeEnd,
			RequireVerifiedMiners: cfg.RequireVerifiedMiners,
		}),
		engine.WithEventSeq(lastSeq),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the telemetry listener
	listener, err := startTelemetry(ctx, cfg, logger, eng)
	if err != nil {
		logger.WithError(err).Error("failed to start telemetry listener")
		os.Exit(1)
	}

	// Start the HTTP API
	server := api.NewServer(eng, logger, &api.Config{
		Addr:         fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.ListenPort),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Error("API server failed")
			cancel()
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API shutdown failed")
	}

	if err := listener.Close(); err != nil {
		logger.WithError(err).Error("failed to close telemetry listener")
	}

	if err := kafkaClient.Close(); err != nil {
		logger.WithError(err).Error("failed to close Kafka client")
	}

	logger.Info("oreqd stopped")
}

// startTelemetry connects the ZMQ ore feed and routes frames into the engine
func startTelemetry(ctx context.Context, cfg *config.Config, logger *log.Logger, eng *engine.Engine) (*telemetry.Listener, error) {
	listener, err := telemetry.NewListener(cfg.OreFeedZMQAddr, logger.Logger)
	if err != nil {
		return nil, err
	}

	for _, topic := range []string{telemetry.TopicOreMined, telemetry.TopicMinerVerified} {
		if err := listener.Subscribe(topic); err != nil {
			return nil, err
		}
	}

	if err := listener.Connect(); err != nil {
		return nil, err
	}

	handler := telemetry.NewOreFeedHandler(logger.Logger)
	handler.SetOreMinedHandler(func(sessionID uint64, oreType ore.Type, amount uint8) error {
		return eng.RecordMiningEvent(ctx, engine.SessionID(sessionID), oreType, amount)
	})
	handler.SetVerifiedHandler(func(miner string, verified bool) error {
		eng.SetMinerVerified(miner, verified)
		return nil
	})

	go func() {
		if err := listener.Listen(ctx, handler.HandleMessage); err != nil && err != context.Canceled {
			logger.WithError(err).Error("telemetry listener failed")
		}
	}()

	return listener, nil
}
