package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
)

// fdaAdapter queries the openFDA adverse-event report API. The signal is the
// volume and severity of consumer reports naming the ingredient, not a
// toxicology verdict.
type fdaAdapter struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func newFDAAdapter(baseURL, apiKey string, client httpDoer) Adapter {
	return &fdaAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (a *fdaAdapter) ID() ingredient.ProviderID { return ingredient.ProviderFDA }

type fdaEventResponse struct {
	Meta struct {
		Results struct {
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []struct {
		Outcomes []string `json:"outcomes"`
	} `json:"results"`
}

// seriousOutcomes are the openFDA outcome labels treated as severe.
var seriousOutcomes = map[string]bool{
	"Death":                        true,
	"Life Threatening":             true,
	"Hospitalization":              true,
	"Disability":                   true,
	"Serious Injuries/ Conditions": true,
}

func (a *fdaAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	q.Set("search", fmt.Sprintf("products.name_brand:%q", name))
	q.Set("limit", "50")
	if a.apiKey != "" {
		q.Set("api_key", a.apiKey)
	}

	var resp fdaEventResponse
	err := getJSON(ctx, a.client, buildURL(a.baseURL, "/food/event.json", q), nil, &resp)
	if errors.IsCode(err, errors.CodeUpstream4xx) {
		// openFDA answers 404 when no report mentions the name. That is the
		// good case here.
		return ingredient.Fact{
			RiskLevel:      ingredient.RiskNone,
			EcoScore:       intPtr(90),
			PayloadSummary: "no adverse event reports",
			FetchedAt:      time.Now().UTC(),
		}, nil
	}
	if err != nil {
		return ingredient.Fact{}, err
	}

	total := resp.Meta.Results.Total
	if total == 0 {
		total = len(resp.Results)
	}
	serious := 0
	for _, r := range resp.Results {
		for _, outcome := range r.Outcomes {
			if seriousOutcomes[outcome] {
				serious++
				break
			}
		}
	}

	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		PayloadSummary: fmt.Sprintf("%d adverse event reports, %d serious", total, serious),
	}
	switch {
	case serious > 0:
		fact.RiskLevel = ingredient.RiskHigh
		fact.EcoScore = intPtr(30)
		fact.RisksDetailed = fmt.Sprintf("%d serious adverse event reports on record", serious)
	case total > 5:
		fact.RiskLevel = ingredient.RiskModerate
		fact.EcoScore = intPtr(55)
		fact.RisksDetailed = fmt.Sprintf("%d adverse event reports on record", total)
	case total > 0:
		fact.RiskLevel = ingredient.RiskLow
		fact.EcoScore = intPtr(75)
	default:
		fact.RiskLevel = ingredient.RiskNone
		fact.EcoScore = intPtr(90)
	}
	return fact, nil
}

func intPtr(v int) *int { return &v }
