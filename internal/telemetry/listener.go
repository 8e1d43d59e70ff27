// Package telemetry ingests mining rig telemetry over ZMQ.
// Rigs publish ore-accrual and verification frames that feed the engine.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	zmq "github.com/pebbe/zmq4"
)

// Well-known publisher topics.
const (
	TopicOreMined      = "oremined"
	TopicMinerVerified = "minerverified"
)

// Listener subscribes to a rig telemetry feed
type Listener struct {
	socket   *zmq.Socket
	endpoint string
	logger   *slog.Logger
}

// NewListener creates a new telemetry listener
func NewListener(endpoint string, logger *slog.Logger) (*Listener, error) {
	socket, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ socket: %w", err)
	}

	return &Listener{
		socket:   socket,
		endpoint: endpoint,
		logger:   logger,
	}, nil
}

// Subscribe subscribes to a specific topic
func (l *Listener) Subscribe(topic string) error {
	if err := l.socket.SetSubscribe(topic); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	l.logger.Info("subscribed to ZMQ topic", "topic", topic)
	return nil
}

// Connect connects to the ZMQ endpoint
func (l *Listener) Connect() error {
	if err := l.socket.Connect(l.endpoint); err != nil {
		return fmt.Errorf("failed to connect to ZMQ endpoint %s: %w", l.endpoint, err)
	}
	l.logger.Info("connected to ZMQ endpoint", "endpoint", l.endpoint)
	return nil
}

// Listen starts listening for telemetry frames
func (l *Listener) Listen(ctx context.Context, handler func(topic string, data []byte) error) error {
	l.logger.Info("starting telemetry listener")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("telemetry listener stopping")
			return ctx.Err()
		default:
		}

		// Receive message with timeout
		msg, err := l.socket.RecvMessageBytes(zmq.DONTWAIT)
		if err != nil {
			if err.Error() == "resource temporarily unavailable" {
				// No message available, continue
				continue
			}
			l.logger.Error("failed to receive ZMQ message", "error", err)
			continue
		}

		if len(msg) < 2 {
			l.logger.Warn("received malformed ZMQ message", "parts", len(msg))
			continue
		}

		topic := string(msg[0])
		data := msg[1]

		l.logger.Debug("received telemetry frame", "topic", topic, "size", len(data))

		if err := handler(topic, data); err != nil {
			l.logger.Error("failed to handle telemetry frame", "topic", topic, "error", err)
		}
	}
}

// Close closes the ZMQ socket
func (l *Listener) Close() error {
	if l.socket != nil {
		return l.socket.Close()
	}
	return nil
}
