// Package analysis defines the public response types of the ingredient
// resolution engine: per-ingredient projections, the product-level verdict,
// and the health report. These are the wire shapes served by the HTTP API
// and printed by the CLI.
package analysis

import "time"

// Suitability is the three-valued product verdict.
type Suitability string

const (
	SuitabilitySuitable Suitability = "suitable"
	SuitabilityCaution  Suitability = "caution"
	SuitabilityAvoid    Suitability = "avoid"
)

// IngredientDetail is the public projection of one aggregated ingredient
// record.
type IngredientDetail struct {
	CanonicalName string    `json:"canonical_name"`
	EcoScore      int       `json:"eco_score"`
	RiskLevel     string    `json:"risk_level"`
	Benefits      string    `json:"benefits,omitempty"`
	RisksDetailed string    `json:"risks_detailed,omitempty"`
	Sources       []string  `json:"sources"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductAnalysis is the product-level aggregate returned by a full
// resolution.
type ProductAnalysis struct {
	ProductName     string             `json:"product_name,omitempty"`
	Ingredients     []IngredientDetail `json:"ingredients_details"`
	AvgEcoScore     int                `json:"avg_eco_score"`
	Suitability     Suitability        `json:"suitability"`
	Recommendations string             `json:"recommendations"`
}

// ProviderHealth is one provider's entry in the health report.
type ProviderHealth struct {
	BreakerState    string  `json:"breaker_state"`
	RecentErrorRate float64 `json:"recent_error_rate"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
	Enabled         bool    `json:"enabled"`
}

// CacheHealth summarizes the in-process cache.
type CacheHealth struct {
	Size      int   `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// HealthReport is the engine's operational self-description.
type HealthReport struct {
	Providers      map[string]ProviderHealth `json:"providers"`
	Cache          CacheHealth               `json:"cache"`
	StoreReachable bool                      `json:"store_reachable"`
}
