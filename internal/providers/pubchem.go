package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
)

// pubchemAdapter resolves a name to a PubChem compound and reads its GHS
// classification signal word. PUG REST resolves the CID; PUG View carries
// the safety sections.
type pubchemAdapter struct {
	baseURL string // .../rest/pug
	viewURL string // .../rest/pug_view
	client  httpDoer
}

func newPubChemAdapter(baseURL, _ string, client httpDoer) Adapter {
	return &pubchemAdapter{
		baseURL: baseURL,
		viewURL: strings.Replace(baseURL, "/pug", "/pug_view", 1),
		client:  client,
	}
}

func (a *pubchemAdapter) ID() ingredient.ProviderID { return ingredient.ProviderPubChem }

type pubchemCIDResponse struct {
	IdentifierList struct {
		CID []int64 `json:"CID"`
	} `json:"IdentifierList"`
}

func (a *pubchemAdapter) Fetch(ctx context.Context, name string) (ingredient.Fact, error) {
	var cids pubchemCIDResponse
	cidURL := buildURL(a.baseURL, "/compound/name/"+url.PathEscape(name)+"/cids/JSON", nil)
	if err := getJSON(ctx, a.client, cidURL, nil, &cids); err != nil {
		return ingredient.Fact{}, err
	}
	if len(cids.IdentifierList.CID) == 0 {
		return ingredient.Fact{
			RiskLevel:      ingredient.RiskUnknown,
			PayloadSummary: "no matching compound",
			FetchedAt:      time.Now().UTC(),
		}, nil
	}
	cid := cids.IdentifierList.CID[0]

	// The GHS section is deeply nested and varies by compound; scanning the
	// raw document for the signal word is as reliable as mirroring the whole
	// PUG View schema.
	var raw json.RawMessage
	q := url.Values{}
	q.Set("heading", "GHS Classification")
	ghsURL := buildURL(a.viewURL, fmt.Sprintf("/data/compound/%d/JSON", cid), q)
	if err := getJSON(ctx, a.client, ghsURL, nil, &raw); err != nil {
		return ingredient.Fact{}, err
	}

	doc := string(raw)
	fact := ingredient.Fact{FetchedAt: time.Now().UTC()}
	switch {
	case strings.Contains(doc, `"Danger"`):
		fact.RiskLevel = ingredient.RiskHigh
		fact.EcoScore = intPtr(30)
		fact.RisksDetailed = "GHS signal word: Danger"
		fact.PayloadSummary = fmt.Sprintf("CID %d, GHS signal Danger", cid)
	case strings.Contains(doc, `"Warning"`):
		fact.RiskLevel = ingredient.RiskModerate
		fact.EcoScore = intPtr(60)
		fact.RisksDetailed = "GHS signal word: Warning"
		fact.PayloadSummary = fmt.Sprintf("CID %d, GHS signal Warning", cid)
	default:
		fact.RiskLevel = ingredient.RiskNone
		fact.EcoScore = intPtr(90)
		fact.PayloadSummary = fmt.Sprintf("CID %d, no GHS signal word", cid)
	}
	return fact, nil
}
