// Package ingredient holds the domain model of the ingredient resolution
// engine: canonical names, per-provider facts, aggregated records, and the
// pure functions that produce them. Nothing in this package performs I/O.
package ingredient

import (
	"time"

	"github.com/labelwise/labelwise/pkg/errors"
)

// ProviderID identifies an external information source. Every fact references
// a provider id registered in the adapter registry.
type ProviderID string

// The providers known to the default configuration. The registry accepts any
// id; these constants exist so priorities, weights, and tests do not repeat
// string literals.
const (
	ProviderFDA        ProviderID = "fda"
	ProviderPubChem    ProviderID = "pubchem"
	ProviderEWG        ProviderID = "ewg"
	ProviderCIR        ProviderID = "cir"
	ProviderSCCS       ProviderID = "sccs"
	ProviderICCR       ProviderID = "iccr"
	ProviderINVIMA     ProviderID = "invima"
	ProviderIARC       ProviderID = "iarc"
	ProviderINCIBeauty ProviderID = "incibeauty"
	ProviderCosIng     ProviderID = "cosing"
	ProviderLocalSeed  ProviderID = "local_seed"
)

// RiskLevel is the normalized safety classification of an ingredient.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskUnknown  RiskLevel = "unknown"
)

// Valid reports whether r is one of the five defined levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskNone, RiskLow, RiskModerate, RiskHigh, RiskUnknown:
		return true
	}
	return false
}

// riskFallbackScore maps a risk level to an eco score when no provider
// contributed a numeric score. Keep in sync with the aggregation rules.
var riskFallbackScore = map[RiskLevel]int{
	RiskNone:     95,
	RiskLow:      80,
	RiskModerate: 55,
	RiskHigh:     25,
	RiskUnknown:  50,
}

// FallbackScore returns the deterministic eco score implied by a risk level.
func (r RiskLevel) FallbackScore() int {
	if s, ok := riskFallbackScore[r]; ok {
		return s
	}
	return riskFallbackScore[RiskUnknown]
}

// Fact is one provider's answer for one canonical name. A failed fetch is a
// legitimate Fact with Success=false and StatusCode naming the failure class;
// CanonicalName and FetchedAt are always set.
type Fact struct {
	Provider      ProviderID       `json:"provider"`
	CanonicalName string           `json:"canonical_name"`
	FetchedAt     time.Time        `json:"fetched_at"`
	StatusCode    errors.ErrorCode `json:"status_code"`
	RiskLevel     RiskLevel        `json:"risk_level"`
	// EcoScore is in [0,100]; nil means the provider did not contribute a
	// numeric score. Adapters normalize their native scales before this
	// point.
	EcoScore      *int   `json:"eco_score,omitempty"`
	Benefits      string `json:"benefits,omitempty"`
	RisksDetailed string `json:"risks_detailed,omitempty"`
	// PayloadSummary is a short, human-readable digest of the raw upstream
	// payload, kept for the audit log.
	PayloadSummary string `json:"payload_summary,omitempty"`
	Success        bool   `json:"success"`
}

// FailedFact builds the canonical failure Fact for a provider call.
func FailedFact(provider ProviderID, name string, code errors.ErrorCode, at time.Time) Fact {
	return Fact{
		Provider:      provider,
		CanonicalName: name,
		FetchedAt:     at,
		StatusCode:    code,
		RiskLevel:     RiskUnknown,
		Success:       false,
	}
}

// SchemaVersion is the current version of the persisted Record shape.
// Incremented only by an intentional migration.
const SchemaVersion = 1

// Record is the merged canonical answer for one canonical name, derived from
// many Facts plus optional seed data. It is the unit of persistence: the
// relational store holds one row per CanonicalName and the document mirror
// one object.
type Record struct {
	CanonicalName string       `json:"canonical_name"`
	EcoScore      int          `json:"eco_score"`
	RiskLevel     RiskLevel    `json:"risk_level"`
	Benefits      string       `json:"benefits"`
	RisksDetailed string       `json:"risks_detailed"`
	Sources       []ProviderID `json:"sources"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	SchemaVersion int          `json:"schema_version"`
}

// UnknownRecord is the answer for a name no source knows anything about.
// It is returned, never persisted: a later resolution may do better.
func UnknownRecord(name string, now time.Time) Record {
	return Record{
		CanonicalName: name,
		EcoScore:      RiskUnknown.FallbackScore(),
		RiskLevel:     RiskUnknown,
		Sources:       []ProviderID{},
		CreatedAt:     now,
		UpdatedAt:     now,
		SchemaVersion: SchemaVersion,
	}
}

// SourceLogEntry is one audit row: the outcome of a single provider fetch.
type SourceLogEntry struct {
	ID            string           `json:"id"`
	Provider      ProviderID       `json:"source_id"`
	CanonicalName string           `json:"canonical_name"`
	StatusCode    errors.ErrorCode `json:"status_code"`
	FetchedAt     time.Time        `json:"fetched_at"`
	Summary       string           `json:"summary"`
}
