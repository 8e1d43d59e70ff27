package messaging

import (
	"log/slog"
	"os"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestNewKafkaClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	brokers := []string{"localhost:9092"}

	client := NewKafkaClient(brokers, logger)

	if client == nil {
		t.Fatal("NewKafkaClient returned nil")
	}

	if len(client.brokers) != 1 || client.brokers[0] != "localhost:9092" {
		t.Errorf("Expected brokers [localhost:9092], got %v", client.brokers)
	}

	if client.logger == nil {
		t.Error("Logger should not be nil")
	}

	if client.writers == nil {
		t.Error("Writers map should not be nil")
	}

	if client.readers == nil {
		t.Error("Readers map should not be nil")
	}
}

func TestKafkaClient_GetProducer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := NewKafkaClient([]string{"localhost:9092"}, logger)

	topic := "test-topic"

	// First call should create a new producer
	producer1 := client.GetProducer(topic)
	if producer1 == nil {
		t.Fatal("GetProducer returned nil")
	}

	if producer1.Topic != topic {
		t.Errorf("Expected topic %s, got %s", topic, producer1.Topic)
	}

	// Second call should return the same producer (cached)
	producer2 := client.GetProducer(topic)
	if producer1 != producer2 {
		t.Error("Expected same producer instance from cache")
	}

	// Different topic should get a different producer
	producer3 := client.GetProducer("other-topic")
	if producer1 == producer3 {
		t.Error("Expected distinct producers per topic")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
}

func TestKafkaClient_GetConsumer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := NewKafkaClient([]string{"localhost:9092"}, logger)

	// First call should create a new consumer
	consumer1 := client.GetConsumer(TopicEvents, "test-group")
	if consumer1 == nil {
		t.Fatal("GetConsumer returned nil")
	}

	// Same topic and group should return the cached consumer
	consumer2 := client.GetConsumer(TopicEvents, "test-group")
	if consumer1 != consumer2 {
		t.Error("Expected same consumer instance from cache")
	}

	// A different group gets its own consumer
	consumer3 := client.GetConsumer(TopicEvents, "other-group")
	if consumer1 == consumer3 {
		t.Error("Expected distinct consumers per group")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
}

func TestKafkaClient_CloseResetsPools(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := NewKafkaClient([]string{"localhost:9092"}, logger)

	client.GetProducer("a")
	client.GetProducer("b")

	if err := client.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}

	if len(client.writers) != 0 {
		t.Errorf("Expected empty writer pool after close, got %d", len(client.writers))
	}
	if len(client.readers) != 0 {
		t.Errorf("Expected empty reader pool after close, got %d", len(client.readers))
	}
}

func TestTopics(t *testing.T) {
	topics := []string{TopicEvents, TopicOreTelemetry, TopicMinerStats}

	seen := make(map[string]bool)
	for _, topic := range topics {
		if topic == "" {
			t.Error("Topic name should not be empty")
		}
		if seen[topic] {
			t.Errorf("Duplicate topic name: %s", topic)
		}
		seen[topic] = true
	}
}

func TestOreTelemetryMessage_JSON(t *testing.T) {
	msg := OreTelemetryMessage{
		SessionID: 42,
		OreType:   "diamond",
		Amount:    3,
		RigID:     "rig-07",
		MinedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal telemetry message: %v", err)
	}

	var decoded OreTelemetryMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal telemetry message: %v", err)
	}

	if decoded != msg {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, msg)
	}
}

func TestMinerStatsSnapshot_JSON(t *testing.T) {
	snap := MinerStatsSnapshot{
		Miner:          "alice",
		TotalSessions:  4,
		TotalOresMined: 19,
		Reputation:     4,
		IsVerified:     true,
		UpdatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Failed to marshal stats snapshot: %v", err)
	}

	var decoded MinerStatsSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal stats snapshot: %v", err)
	}

	if decoded != snap {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, snap)
	}
}
