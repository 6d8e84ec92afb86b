package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
)

// incibeautyAdapter queries the INCI Beauty ingredient API. Their rating is
// 0..20 (20 best); the eco score multiplies it onto the 0..100 scale.
type incibeautyAdapter struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func newINCIBeautyAdapter(baseURL, apiKey string, client httpDoer) Adapter {
	return &incibeautyAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (a *incibeautyAdapter) ID() ingredient.ProviderID { return ingredient.ProviderINCIBeauty }

type incibeautyResponse struct {
	Name      string   `json:"name"`
	Score     int      `json:"score"` // 0..20
	Flag      string   `json:"flag"`  // "green" | "yellow" | "orange" | "red"
	Functions []string `json:"functions"`
}

func (a *incibeautyAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	q := url.Values{}
	if a.apiKey != "" {
		q.Set("key", a.apiKey)
	}

	var resp incibeautyResponse
	u := buildURL(a.baseURL, "/ingredient/"+url.PathEscape(name), q)
	if err := getJSON(ctx, a.client, u, nil, &resp); err != nil {
		return ingredient.Fact{}, err
	}

	score := resp.Score
	if score < 0 {
		score = 0
	}
	if score > 20 {
		score = 20
	}

	fact := ingredient.Fact{
		FetchedAt:      time.Now().UTC(),
		EcoScore:       intPtr(score * 5),
		Benefits:       strings.Join(resp.Functions, ", "),
		PayloadSummary: fmt.Sprintf("rated %d/20 (%s)", score, resp.Flag),
	}
	switch strings.ToLower(resp.Flag) {
	case "red":
		fact.RiskLevel = ingredient.RiskHigh
	case "orange":
		fact.RiskLevel = ingredient.RiskModerate
	case "yellow":
		fact.RiskLevel = ingredient.RiskLow
	case "green":
		fact.RiskLevel = ingredient.RiskNone
	default:
		fact.RiskLevel = ingredient.RiskUnknown
	}
	return fact, nil
}
