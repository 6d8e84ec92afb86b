// Package kafka carries the engine's asynchronous events: audit records of
// provider fetches and the mirror-reconciliation queue.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic names. Partitioning is by canonical name so events for one
// ingredient stay ordered.
const (
	TopicMirrorFailed     = "ingredient.mirror.failed"
	TopicMirrorReconciled = "ingredient.mirror.reconciled"
	TopicAudit            = "ingredient.audit"
)

// Event types carried in envelopes.
const (
	EventMirrorWriteFailed = "mirror.write_failed"
	EventMirrorReconciled  = "mirror.reconciled"
	EventProviderFetch     = "provider.fetch"
)

// Envelope is the wire shape of every event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in a typed envelope with a fresh id.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// MirrorFailedPayload names the record whose mirror write failed.
type MirrorFailedPayload struct {
	CanonicalName string `json:"canonical_name"`
	Reason        string `json:"reason"`
}

// ProviderFetchPayload is the audit projection of one provider call.
type ProviderFetchPayload struct {
	Provider      string    `json:"provider"`
	CanonicalName string    `json:"canonical_name"`
	StatusCode    string    `json:"status_code"`
	FetchedAt     time.Time `json:"fetched_at"`
}
