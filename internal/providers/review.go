package providers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
)

// reviewAdapter covers the expert review bodies (CIR, SCCS, ICCR, INVIMA).
// They publish the same thing in different wrappers: per-substance safety
// conclusions as prose. One adapter with per-body identity maps the
// conclusion text onto the normalized risk scale.
type reviewAdapter struct {
	id      ingredient.ProviderID
	baseURL string
	client  httpDoer
}

func newReviewAdapter(id ingredient.ProviderID) func(baseURL, apiKey string, client httpDoer) Adapter {
	return func(baseURL, _ string, client httpDoer) Adapter {
		return &reviewAdapter{id: id, baseURL: baseURL, client: client}
	}
}

func (a *reviewAdapter) ID() ingredient.ProviderID { return a.id }

type reviewResponse struct {
	Entries []struct {
		Title      string `json:"title"`
		Conclusion string `json:"conclusion"`
		Year       int    `json:"year"`
	} `json:"entries"`
}

// conclusionRisk maps review-conclusion phrases to risk levels. The first
// match wins; phrasing follows the bodies' published vocabulary.
var conclusionRisk = []struct {
	phrase string
	risk   ingredient.RiskLevel
}{
	{"unsafe", ingredient.RiskHigh},
	{"not safe", ingredient.RiskHigh},
	{"prohibited", ingredient.RiskHigh},
	{"banned", ingredient.RiskHigh},
	{"insufficient data", ingredient.RiskModerate},
	{"safe with qualifications", ingredient.RiskModerate},
	{"restricted", ingredient.RiskModerate},
	{"safe as used", ingredient.RiskLow},
	{"safe", ingredient.RiskLow},
}

func riskFromConclusion(conclusion string) ingredient.RiskLevel {
	lowered := strings.ToLower(conclusion)
	for _, m := range conclusionRisk {
		if strings.Contains(lowered, m.phrase) {
			return m.risk
		}
	}
	return ingredient.RiskUnknown
}

func (a *reviewAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	q.Set("q", name)

	var resp reviewResponse
	if err := getJSON(ctx, a.client, buildURL(a.baseURL, "/search", q), nil, &resp); err != nil {
		return ingredient.Fact{}, err
	}
	if len(resp.Entries) == 0 {
		return ingredient.Fact{
			RiskLevel:      ingredient.RiskUnknown,
			PayloadSummary: "no published review",
			FetchedAt:      time.Now().UTC(),
		}, nil
	}

	// Entries come newest first; the latest conclusion is the operative one.
	entry := resp.Entries[0]
	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		RiskLevel:      riskFromConclusion(entry.Conclusion),
		PayloadSummary: truncate(entry.Title+": "+entry.Conclusion, 200),
	}
	if fact.RiskLevel == ingredient.RiskHigh || fact.RiskLevel == ingredient.RiskModerate {
		fact.RisksDetailed = entry.Conclusion
	}
	return fact, nil
}

// iarcAdapter queries the IARC monograph classification. IARC groups name
// carcinogenicity evidence: group 1 and 2A are treated as high risk, 2B as
// moderate, group 3 as unclassifiable.
type iarcAdapter struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func newIARCAdapter(baseURL, apiKey string, client httpDoer) Adapter {
	return &iarcAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (a *iarcAdapter) ID() ingredient.ProviderID { return ingredient.ProviderIARC }

type iarcResponse struct {
	Agent  string `json:"agent"`
	Group  string `json:"group"` // "1" | "2A" | "2B" | "3"
	Volume string `json:"volume"`
}

func (a *iarcAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	q.Set("agent", name)

	headers := map[string]string{}
	if a.apiKey != "" {
		headers["X-Api-Key"] = a.apiKey
	}

	var resp iarcResponse
	if err := getJSON(ctx, a.client, buildURL(a.baseURL, "/classifications", q), headers, &resp); err != nil {
		return ingredient.Fact{}, err
	}
	if resp.Group == "" {
		return ingredient.Fact{
			RiskLevel:      ingredient.RiskUnknown,
			PayloadSummary: "not evaluated by IARC",
			FetchedAt:      time.Now().UTC(),
		}, nil
	}

	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		PayloadSummary: "IARC group " + resp.Group,
	}
	switch strings.ToUpper(resp.Group) {
	case "1", "2A":
		fact.RiskLevel = ingredient.RiskHigh
		fact.RisksDetailed = "IARC group " + resp.Group + " carcinogenicity classification"
	case "2B":
		fact.RiskLevel = ingredient.RiskModerate
		fact.RisksDetailed = "IARC group 2B: possibly carcinogenic"
	case "3":
		fact.RiskLevel = ingredient.RiskNone
	default:
		fact.RiskLevel = ingredient.RiskUnknown
	}
	return fact, nil
}
