package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
)

// ewgAdapter queries the EWG Skin Deep hazard database. EWG scores hazard on
// a 1..10 scale (10 worst); the eco score is the inversion of that scale.
type ewgAdapter struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func newEWGAdapter(baseURL, apiKey string, client httpDoer) Adapter {
	return &ewgAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (a *ewgAdapter) ID() ingredient.ProviderID { return ingredient.ProviderEWG }

type ewgResponse struct {
	Name        string   `json:"name"`
	HazardScore int      `json:"hazard_score"`
	Concerns    []string `json:"concerns"`
	Functions   []string `json:"functions"`
}

func (a *ewgAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	q.Set("name", name)

	headers := map[string]string{}
	if a.apiKey != "" {
		headers["Authorization"] = "Bearer " + a.apiKey
	}

	var resp ewgResponse
	if err := getJSON(ctx, a.client, buildURL(a.baseURL, "/api/ingredient", q), headers, &resp); err != nil {
		return ingredient.Fact{}, err
	}

	hazard := resp.HazardScore
	if hazard < 1 {
		hazard = 1
	}
	if hazard > 10 {
		hazard = 10
	}

	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		EcoScore:       intPtr(100 - 10*hazard),
		Benefits:       strings.Join(resp.Functions, ", "),
		RisksDetailed:  strings.Join(resp.Concerns, ", "),
		PayloadSummary: fmt.Sprintf("hazard score %d/10", hazard),
	}
	switch {
	case hazard >= 8:
		fact.RiskLevel = ingredient.RiskHigh
	case hazard >= 5:
		fact.RiskLevel = ingredient.RiskModerate
	case hazard >= 3:
		fact.RiskLevel = ingredient.RiskLow
	default:
		fact.RiskLevel = ingredient.RiskNone
	}
	return fact, nil
}
