package ingredient

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultPriority is the provider precedence used for risk-level selection
// and text ordering when the configuration does not override it. Lower index
// means higher priority.
var DefaultPriority = []ProviderID{
	ProviderIARC,
	ProviderFDA,
	ProviderCIR,
	ProviderSCCS,
	ProviderINVIMA,
	ProviderEWG,
	ProviderICCR,
	ProviderINCIBeauty,
	ProviderCosIng,
	ProviderLocalSeed,
	ProviderPubChem,
}

// DefaultWeights is the eco-score weight per provider used when the
// configuration does not override it. Providers absent from the map
// contribute with weight 0.05.
var DefaultWeights = map[ProviderID]float64{
	ProviderFDA:  0.30,
	ProviderEWG:  0.25,
	ProviderCIR:  0.20,
	ProviderSCCS: 0.15,
	ProviderICCR: 0.10,
}

const defaultWeight = 0.05

// maxAggregatedTextLen caps the concatenated benefits / risks text.
const maxAggregatedTextLen = 2000

// AggregationRules parameterizes Aggregate. The zero value is not usable;
// construct with NewAggregationRules.
type AggregationRules struct {
	priority map[ProviderID]int
	order    []ProviderID
	weights  map[ProviderID]float64
}

// NewAggregationRules builds rules from a priority order and weight map.
// Empty arguments fall back to the package defaults.
func NewAggregationRules(order []ProviderID, weights map[ProviderID]float64) AggregationRules {
	if len(order) == 0 {
		order = DefaultPriority
	}
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	prio := make(map[ProviderID]int, len(order))
	for i, p := range order {
		prio[p] = i
	}
	return AggregationRules{priority: prio, order: order, weights: weights}
}

// rank returns the priority index of p; unregistered providers sort last.
func (r AggregationRules) rank(p ProviderID) int {
	if i, ok := r.priority[p]; ok {
		return i
	}
	return len(r.priority) + 1
}

func (r AggregationRules) weight(p ProviderID) float64 {
	if w, ok := r.weights[p]; ok {
		return w
	}
	return defaultWeight
}

// Aggregate merges a bag of facts for one canonical name into a Record.
// It is pure: the same bag (in any order) yields the same record, and the
// clock never participates — CreatedAt/UpdatedAt are stamped by the caller
// at persistence time.
//
// Rules:
//   - risk level: highest-priority non-unknown value among successful facts;
//     ties broken by earliest FetchedAt; unknown if none.
//   - eco score: weighted mean of contributed scores, rounded; falls back to
//     the deterministic risk-level mapping when no score was contributed.
//   - benefits / risks: unique non-empty strings joined by ". " in priority
//     order, capped at a fixed length.
//   - sources: contributing provider ids in priority order, deduplicated.
func Aggregate(name CanonicalName, facts []Fact, rules AggregationRules) Record {
	// Work on a sorted copy so the result is independent of bag order.
	sorted := make([]Fact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rules.rank(sorted[i].Provider), rules.rank(sorted[j].Provider)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].FetchedAt.Before(sorted[j].FetchedAt)
	})

	record := Record{
		CanonicalName: name.String(),
		RiskLevel:     RiskUnknown,
		Sources:       []ProviderID{},
		SchemaVersion: SchemaVersion,
	}

	var (
		scoreSum    float64
		weightSum   float64
		benefits    []string
		risks       []string
		seenSource  = map[ProviderID]struct{}{}
		seenBenefit = map[string]struct{}{}
		seenRisk    = map[string]struct{}{}
	)

	for _, f := range sorted {
		if !f.Success {
			continue
		}

		if _, dup := seenSource[f.Provider]; !dup {
			seenSource[f.Provider] = struct{}{}
			record.Sources = append(record.Sources, f.Provider)
		}

		// First non-unknown wins; the slice is already priority-ordered.
		if record.RiskLevel == RiskUnknown && f.RiskLevel != RiskUnknown && f.RiskLevel.Valid() {
			record.RiskLevel = f.RiskLevel
		}

		if f.EcoScore != nil {
			w := rules.weight(f.Provider)
			scoreSum += w * float64(clampScore(*f.EcoScore))
			weightSum += w
		}

		if s := strings.TrimSpace(f.Benefits); s != "" {
			if _, dup := seenBenefit[s]; !dup {
				seenBenefit[s] = struct{}{}
				benefits = append(benefits, s)
			}
		}
		if s := strings.TrimSpace(f.RisksDetailed); s != "" {
			if _, dup := seenRisk[s]; !dup {
				seenRisk[s] = struct{}{}
				risks = append(risks, s)
			}
		}
	}

	if weightSum > 0 {
		record.EcoScore = clampScore(int(math.Round(scoreSum / weightSum)))
	} else {
		record.EcoScore = record.RiskLevel.FallbackScore()
	}

	record.Benefits = joinCapped(benefits, maxAggregatedTextLen)
	record.RisksDetailed = joinCapped(risks, maxAggregatedTextLen)
	return record
}

// Stamp sets the temporal fields on a freshly aggregated record. prev is the
// previously persisted record for the same name, or nil on first resolution.
// UpdatedAt is forced to be monotonically non-decreasing per name.
func Stamp(record Record, prev *Record, now time.Time) Record {
	record.CreatedAt = now
	record.UpdatedAt = now
	if prev != nil {
		record.CreatedAt = prev.CreatedAt
		if prev.UpdatedAt.After(now) {
			record.UpdatedAt = prev.UpdatedAt
		}
	}
	return record
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func joinCapped(parts []string, max int) string {
	joined := strings.Join(parts, ". ")
	if len(joined) <= max {
		return joined
	}
	// Cut on a rune boundary.
	cut := max
	for cut > 0 && !utf8.RuneStart(joined[cut]) {
		cut--
	}
	return joined[:cut]
}
