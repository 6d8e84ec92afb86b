package providers

import (
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
)

type adapterCtor func(baseURL, apiKey string, client httpDoer) Adapter

// adapterCtors maps provider ids to adapter constructors. Registering a new
// provider means one entry here plus a configuration block.
var adapterCtors = map[ingredient.ProviderID]adapterCtor{
	ingredient.ProviderFDA:        newFDAAdapter,
	ingredient.ProviderPubChem:    newPubChemAdapter,
	ingredient.ProviderEWG:        newEWGAdapter,
	ingredient.ProviderCosIng:     newCosIngAdapter,
	ingredient.ProviderINCIBeauty: newINCIBeautyAdapter,
	ingredient.ProviderIARC:       newIARCAdapter,
	ingredient.ProviderCIR:        newReviewAdapter(ingredient.ProviderCIR),
	ingredient.ProviderSCCS:       newReviewAdapter(ingredient.ProviderSCCS),
	ingredient.ProviderICCR:       newReviewAdapter(ingredient.ProviderICCR),
	ingredient.ProviderINVIMA:     newReviewAdapter(ingredient.ProviderINVIMA),
}

// Registry owns the configured sources, ordered by priority.
type Registry struct {
	byID    map[ingredient.ProviderID]*Source
	ordered []*Source
}

// defaultHTTPClient is shared by all adapters; per-call deadlines come from
// the resilience policies, so the client itself carries no timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewRegistry builds sources for every configured provider. client may be
// nil, in which case a shared pooled client is used. An unknown provider id
// is a configuration error.
func NewRegistry(cfgs []config.ProviderConfig, client httpDoer, onBreakerChange func(name, from, to string)) (*Registry, error) {
	if client == nil {
		client = defaultHTTPClient()
	}
	r := &Registry{byID: make(map[ingredient.ProviderID]*Source, len(cfgs))}
	for _, cfg := range cfgs {
		id := ingredient.ProviderID(cfg.ID)
		ctor, ok := adapterCtors[id]
		if !ok {
			return nil, errors.Newf(errors.CodeConfigError, "no adapter registered for provider %q", cfg.ID)
		}
		apiKey := ""
		if cfg.AuthEnv != "" {
			apiKey = os.Getenv(cfg.AuthEnv)
		}
		src := NewSource(ctor(cfg.BaseURL, apiKey, client), cfg, onBreakerChange)
		r.byID[id] = src
		r.ordered = append(r.ordered, src)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].cfg.Priority < r.ordered[j].cfg.Priority
	})
	return r, nil
}

// Get returns the source for id, or nil.
func (r *Registry) Get(id ingredient.ProviderID) *Source {
	return r.byID[id]
}

// All returns every configured source in priority order.
func (r *Registry) All() []*Source {
	return r.ordered
}

// Enabled returns the sources participating in fan-out, in priority order.
func (r *Registry) Enabled() []*Source {
	out := make([]*Source, 0, len(r.ordered))
	for _, s := range r.ordered {
		if s.Enabled() {
			out = append(out, s)
		}
	}
	return out
}
