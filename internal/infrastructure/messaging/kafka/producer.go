package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Producer publishes envelopes. One writer serves all topics; messages are
// keyed by canonical name to keep per-ingredient ordering.
type Producer struct {
	writer *kafkago.Writer
	logger logging.Logger
}

// NewProducer builds a producer against the configured brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	return &Producer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Balancer:     &kafkago.Hash{},
			MaxAttempts:  cfg.ProducerRetries + 1,
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafkago.RequireOne,
		},
		logger: log,
	}
}

// Publish writes one envelope to topic, keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding event envelope")
	}
	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: raw,
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeQueueError, "publishing event")
	}
	return nil
}

// Close flushes and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
