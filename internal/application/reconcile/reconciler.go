// Package reconcile repairs the document mirror. When a resolution cannot
// write its record to the mirror, it queues an event; this worker re-reads
// the authoritative record and retries the mirror write.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Publisher is the slice of the kafka producer the worker needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env kafka.Envelope) error
}

// Reconciler handles mirror-failure events.
type Reconciler struct {
	records  ingredient.RecordRepository
	mirror   ingredient.Mirror
	producer Publisher
	logger   logging.Logger

	maxRetries  int
	initialWait time.Duration
}

// New builds a Reconciler. producer may be nil to skip reconciled events.
func New(records ingredient.RecordRepository, mirror ingredient.Mirror, producer Publisher, log logging.Logger) *Reconciler {
	return &Reconciler{
		records:     records,
		mirror:      mirror,
		producer:    producer,
		logger:      log.Named("reconciler"),
		maxRetries:  4,
		initialWait: 500 * time.Millisecond,
	}
}

// Handle processes one event. It satisfies kafka.Handler; returning an error
// leaves the event queued for redelivery.
func (r *Reconciler) Handle(ctx context.Context, env kafka.Envelope) error {
	if env.Type != kafka.EventMirrorWriteFailed {
		// Not ours; ack and move on.
		return nil
	}

	var payload kafka.MirrorFailedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		r.logger.Warn("dropping malformed reconciliation event",
			logging.String("event_id", env.ID), logging.Err(err))
		return nil
	}
	name := ingredient.CanonicalName(payload.CanonicalName)

	record, err := r.records.Get(ctx, name)
	if errors.IsCode(err, errors.CodeNotFound) {
		// The record vanished between failure and reconciliation; nothing to
		// mirror.
		r.logger.Info("record gone, skipping reconciliation",
			logging.String("name", payload.CanonicalName))
		return nil
	}
	if err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialWait
	bo.MaxElapsedTime = 0
	bo.Reset()

	var putErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		putErr = r.mirror.Put(ctx, *record)
		if putErr == nil {
			break
		}
		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if putErr != nil {
		return errors.Wrap(putErr, errors.CodeMirrorError, "mirror still failing")
	}

	r.logger.Info("mirror reconciled", logging.String("name", payload.CanonicalName))
	if r.producer != nil {
		done, err := kafka.NewEnvelope(kafka.EventMirrorReconciled, kafka.MirrorFailedPayload{
			CanonicalName: payload.CanonicalName,
		})
		if err == nil {
			if err := r.producer.Publish(ctx, kafka.TopicMirrorReconciled, payload.CanonicalName, done); err != nil {
				r.logger.Debug("reconciled event publish failed", logging.Err(err))
			}
		}
	}
	return nil
}
