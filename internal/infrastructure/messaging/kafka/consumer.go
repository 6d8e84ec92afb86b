package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Handler processes one decoded envelope. Returning an error leaves the
// offset uncommitted so the message is redelivered.
type Handler func(ctx context.Context, env Envelope) error

// Consumer reads one topic within a consumer group.
type Consumer struct {
	reader *kafkago.Reader
	logger logging.Logger
}

// NewConsumer builds a group consumer for topic.
func NewConsumer(cfg config.KafkaConfig, topic string, log logging.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   topic,
		}),
		logger: log.Named("kafka-consumer"),
	}
}

// Run consumes until ctx is canceled. Undecodable messages are committed and
// dropped; handler errors leave the message uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.CodeQueueError, "fetching message")
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.logger.Warn("dropping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return errors.Wrap(err, errors.CodeQueueError, "committing offset")
			}
			continue
		}

		if err := handle(ctx, env); err != nil {
			c.logger.Warn("handler failed, message will be redelivered",
				logging.String("event_id", env.ID),
				logging.String("type", env.Type),
				logging.Err(err),
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.CodeQueueError, "committing offset")
		}
	}
}

// Close releases the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
