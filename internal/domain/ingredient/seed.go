package ingredient

import "time"

// seedEntry is one row of the embedded local catalog.
type seedEntry struct {
	risk     RiskLevel
	eco      int
	benefits string
	risks    string
}

// seedCatalog covers ingredients common enough that a cold system should
// answer sensibly before any provider has been consulted. Seed facts carry
// the lowest provider priority, so any real provider answer supersedes them
// for risk selection and text ordering.
var seedCatalog = map[CanonicalName]seedEntry{
	"water": {
		risk: RiskNone, eco: 98,
		benefits: "Solvent and hydration base; universally tolerated",
	},
	"glycerin": {
		risk: RiskLow, eco: 90,
		benefits: "Humectant; draws moisture into the skin barrier",
	},
	"tocopherol": {
		risk: RiskNone, eco: 92,
		benefits: "Antioxidant; protects oils from oxidation",
	},
	"panthenol": {
		risk: RiskNone, eco: 90,
		benefits: "Soothing humectant; supports barrier repair",
	},
	"niacinamide": {
		risk: RiskNone, eco: 91,
		benefits: "Brightening; regulates sebum and strengthens barrier",
	},
	"sodium lauryl sulfate": {
		risk: RiskHigh, eco: 35,
		risks: "Anionic surfactant; known irritant at leave-on concentrations",
	},
	"sodium laureth sulfate": {
		risk: RiskModerate, eco: 50,
		risks: "Milder ethoxylated surfactant; 1,4-dioxane process contaminant concern",
	},
	"fragrance": {
		risk: RiskModerate, eco: 45,
		risks: "Undisclosed mixture; leading cause of cosmetic contact allergy",
	},
	"methylparaben": {
		risk: RiskLow, eco: 70,
		risks: "Preservative; weak estrogenic activity in vitro",
	},
	"propylparaben": {
		risk: RiskModerate, eco: 55,
		risks: "Preservative; endocrine activity concerns at high exposure",
	},
	"petrolatum": {
		risk: RiskLow, eco: 40,
		benefits: "Occlusive; highly effective barrier protectant",
		risks:    "Petroleum-derived; PAH contamination concern when unrefined",
	},
	"mineral oil": {
		risk: RiskLow, eco: 42,
		benefits: "Occlusive emollient",
		risks:    "Petroleum-derived; refinement grade determines safety",
	},
	"retinol": {
		risk: RiskModerate, eco: 60,
		benefits: "Cell-turnover stimulant; established anti-aging active",
		risks:    "Irritation and photosensitivity; restricted in some jurisdictions",
	},
	"titanium dioxide": {
		risk: RiskLow, eco: 75,
		benefits: "Mineral UV filter",
		risks:    "Inhalation hazard in powder form only",
	},
	"ascorbic acid": {
		risk: RiskNone, eco: 90,
		benefits: "Antioxidant; collagen synthesis cofactor",
	},
}

// SeedFact returns the local-catalog fact for name, if the catalog has one.
// Seed facts report ProviderLocalSeed and always Success=true.
func SeedFact(name CanonicalName, now time.Time) (Fact, bool) {
	entry, ok := seedCatalog[name]
	if !ok {
		return Fact{}, false
	}
	eco := entry.eco
	return Fact{
		Provider:       ProviderLocalSeed,
		CanonicalName:  name.String(),
		FetchedAt:      now,
		RiskLevel:      entry.risk,
		EcoScore:       &eco,
		Benefits:       entry.benefits,
		RisksDetailed:  entry.risks,
		PayloadSummary: "embedded seed catalog",
		Success:        true,
	}, true
}
