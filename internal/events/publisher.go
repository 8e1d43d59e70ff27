package events

import (
	"context"
	"strconv"

	"github.com/orequest/oreq/internal/messaging"
)

// Publisher relays events to Kafka for external consumers. Messages are
// keyed by miner so per-miner ordering survives partitioning.
type Publisher struct {
	client *messaging.KafkaClient
	topic  string
}

// NewPublisher creates a Kafka-backed event sink. The client's lifecycle
// is owned by the caller.
func NewPublisher(client *messaging.KafkaClient, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Emit implements Sink
func (p *Publisher) Emit(ctx context.Context, ev *Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return err
	}

	key := ev.Miner
	if key == "" {
		key = strconv.FormatUint(ev.Seq, 10)
	}

	return p.client.PublishJSON(ctx, p.topic, key, data)
}

// Close implements Sink
func (p *Publisher) Close() error { return nil }
