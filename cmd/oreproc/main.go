// Package main implements oreproc, the OreQuest event archiver. It
// consumes the engine's Kafka event stream and persists lifecycle records
// to PostgreSQL while feeding time-series metrics to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orequest/oreq/internal/config"
	"github.com/orequest/oreq/internal/database"
	"github.com/orequest/oreq/internal/database/influx"
	"github.com/orequest/oreq/internal/database/postgres"
	"github.com/orequest/oreq/internal/database/redis"
	"github.com/orequest/oreq/internal/events"
	"github.com/orequest/oreq/internal/messaging"
	"github.com/orequest/oreq/internal/ore"
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
	logger.Info("starting oreproc",
		"version", cfg.Version,
		"kafka_brokers", cfg.KafkaBrokers,
	)

	// Create Kafka client
	kafkaClient := messaging.NewKafkaClient(
		cfg.KafkaBrokers,
		logger.Logger,
	)

	// Create database manager
	dbConfig := &database.Config{
		Postgres: &postgres.Config{
			URL:          cfg.PostgresURL,
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  5 * time.Minute,
		},
		Redis: &redis.Config{
			URL:          cfg.RedisURL,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Influx: &influx.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		},
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		logger.WithError(err).Error("failed to create database manager")
		os.Exit(1)
	}

	// Create the archiver
	archiver := NewEventArchiver(cfg, logger, kafkaClient, dbManager)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the archiver
	go func() {
		if err := archiver.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("event archiver failed")
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
	cancel()

	if err := archiver.Shutdown(); err != nil {
		logger.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}

	logger.Info("oreproc stopped")
}

// EventArchiver persists the engine event stream
type EventArchiver struct {
	cfg         *config.Config
	logger      *log.Logger
	kafkaClient *messaging.KafkaClient
	dbManager   *database.Manager
}

// NewEventArchiver creates a new event archiver
func NewEventArchiver(cfg *config.Config, logger *log.Logger, kafkaClient *messaging.KafkaClient, dbManager *database.Manager) *EventArchiver {
	return &EventArchiver{
		cfg:         cfg,
		logger:      logger.WithComponent("archiver"),
		kafkaClient: kafkaClient,
		dbManager:   dbManager,
	}
}

// Start consumes the event stream until the context is cancelled
func (a *EventArchiver) Start(ctx context.Context) error {
	a.logger.Info("event archiver starting", "topic", messaging.TopicEvents)

	a.dbManager.StartPeriodicTasks(ctx)

	return a.kafkaClient.StartConsumer(ctx, messaging.TopicEvents, a.cfg.KafkaGroupID, a)
}

// Shutdown closes the archiver's connections
func (a *EventArchiver) Shutdown() error {
	a.logger.Info("shutting down event archiver")

	if err := a.kafkaClient.Close(); err != nil {
		a.logger.WithError(err).Error("failed to close Kafka client")
	}

	return a.dbManager.Close()
}

// HandleMessage implements messaging.MessageHandler
func (a *EventArchiver) HandleMessage(ctx context.Context, key string, value []byte) error {
	ev, err := events.Unmarshal(value)
	if err != nil {
		a.logger.WithError(err).Error("failed to unmarshal event", "key", key)
		// Malformed events are dropped, not retried
		return nil
	}

	logger := a.logger.WithFields("event_type", string(ev.Type), "seq", ev.Seq)

	startTime := time.Now()
	defer func() {
		logger.Debug("event archived", "duration_ms", time.Since(startTime).Milliseconds())
	}()

	switch ev.Type {
	case events.TypeSessionStarted:
		return a.archiveSessionStarted(ctx, ev)
	case events.TypeOreMined:
		return a.archiveOreMined(ctx, ev)
	case events.TypeSessionEnded:
		return a.archiveSessionEnded(ctx, ev)
	case events.TypeClaimCreated:
		return a.archiveClaimCreated(ctx, ev)
	case events.TypeClaimRevealed:
		return a.archiveClaimRevealed(ctx, ev)
	default:
		logger.Warn("unknown event type, skipping")
		return nil
	}
}

func (a *EventArchiver) archiveSessionStarted(ctx context.Context, ev *events.Event) error {
	session := &postgres.Session{
		SessionID: int64(ev.SessionID),
		Miner:     ev.Miner,
		Status:    "active",
		StartedAt: ev.Timestamp,
	}
	return a.dbManager.ArchiveSessionStarted(ctx, session)
}

func (a *EventArchiver) archiveOreMined(ctx context.Context, ev *events.Event) error {
	event := &postgres.MiningEvent{
		SessionID: int64(ev.SessionID),
		Miner:     ev.Miner,
		OreType:   ev.OreType,
		Amount:    int16(ev.Amount),
		MinedAt:   ev.Timestamp,
	}
	return a.dbManager.ArchiveOreMined(ctx, event)
}

func (a *EventArchiver) archiveSessionEnded(ctx context.Context, ev *events.Event) error {
	return a.dbManager.ArchiveSessionEnded(ctx, int64(ev.SessionID), ev.Miner, int16(ev.TotalMined), ev.Timestamp)
}

func (a *EventArchiver) archiveClaimCreated(ctx context.Context, ev *events.Event) error {
	claim := &postgres.Claim{
		ClaimID:    int64(ev.ClaimID),
		SessionID:  int64(ev.SessionID),
		Claimer:    ev.Miner,
		Commitment: ev.Commitment,
		CreatedAt:  ev.Timestamp,
	}
	return a.dbManager.ArchiveClaimCreated(ctx, claim)
}

func (a *EventArchiver) archiveClaimRevealed(ctx context.Context, ev *events.Event) error {
	if ev.Amounts == nil {
		a.logger.Warn("reveal event without amounts, skipping", "seq", ev.Seq)
		return nil
	}

	amounts := *ev.Amounts
	gold := int16(amounts.Get(ore.Gold))
	emerald := int16(amounts.Get(ore.Emerald))
	ruby := int16(amounts.Get(ore.Ruby))
	sapphire := int16(amounts.Get(ore.Sapphire))
	diamond := int16(amounts.Get(ore.Diamond))
	totalValue := int16(ev.TotalValue)
	revealedAt := ev.Timestamp

	claim := &postgres.Claim{
		ClaimID:        int64(ev.ClaimID),
		SessionID:      int64(ev.SessionID),
		Claimer:        ev.Miner,
		GoldAmount:     &gold,
		EmeraldAmount:  &emerald,
		RubyAmount:     &ruby,
		SapphireAmount: &sapphire,
		DiamondAmount:  &diamond,
		TotalValue:     &totalValue,
		IsRevealed:     true,
		RevealedAt:     &revealedAt,
	}

	return a.dbManager.ArchiveClaimRevealed(ctx, claim, int64(amounts.Count()))
}
