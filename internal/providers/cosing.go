package providers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
)

// cosingAdapter queries the EU CosIng catalogue. CosIng contributes INCI
// functions and annex status: Annex II entries are prohibited in the EU,
// Annex III entries are restricted.
type cosingAdapter struct {
	baseURL string
	client  httpDoer
}

func newCosIngAdapter(baseURL, _ string, client httpDoer) Adapter {
	return &cosingAdapter{baseURL: baseURL, client: client}
}

func (a *cosingAdapter) ID() ingredient.ProviderID { return ingredient.ProviderCosIng }

type cosingResponse struct {
	Results []struct {
		INCIName    string   `json:"inciName"`
		Functions   []string `json:"functions"`
		AnnexRef    string   `json:"annexRef"`
		Restriction string   `json:"restriction"`
	} `json:"results"`
}

func (a *cosingAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	q.Set("name", name)

	var resp cosingResponse
	if err := getJSON(ctx, a.client, buildURL(a.baseURL, "/api/v1/ingredients", q), nil, &resp); err != nil {
		return ingredient.Fact{}, err
	}
	if len(resp.Results) == 0 {
		return ingredient.Fact{
			RiskLevel:      ingredient.RiskUnknown,
			PayloadSummary: "not listed in CosIng",
			FetchedAt:      time.Now().UTC(),
		}, nil
	}

	entry := resp.Results[0]
	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		Benefits:       strings.Join(entry.Functions, ", "),
		PayloadSummary: "CosIng entry " + entry.INCIName,
	}
	annex := strings.ToUpper(entry.AnnexRef)
	switch {
	case strings.HasPrefix(annex, "II/"), annex == "II":
		fact.RiskLevel = ingredient.RiskHigh
		fact.RisksDetailed = "listed in EU Annex II (prohibited substances)"
	case strings.HasPrefix(annex, "III/"), annex == "III":
		fact.RiskLevel = ingredient.RiskModerate
		fact.RisksDetailed = "listed in EU Annex III (restricted): " + entry.Restriction
	default:
		fact.RiskLevel = ingredient.RiskLow
	}
	return fact, nil
}
