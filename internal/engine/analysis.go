package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

// sensitiveMarkers are the user-context fragments that force caution around
// high-risk ingredients.
var sensitiveMarkers = []string{"sensitive", "allergy", "allergic", "atopic", "eczema"}

func isSensitiveContext(userContext string) bool {
	lowered := strings.ToLower(userContext)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// AnalyzeProduct resolves a product's ingredient list and derives the
// product-level verdict. userContext is free text about the user (skin
// type, allergies); a sensitive context combined with any high-risk
// ingredient forces an avoid verdict regardless of the average score.
func (e *Engine) AnalyzeProduct(ctx context.Context, productName string, rawNames []string, userContext string) (analysis.ProductAnalysis, error) {
	records, err := e.ResolveIngredients(ctx, rawNames)
	if err != nil {
		return analysis.ProductAnalysis{}, err
	}

	result := analysis.ProductAnalysis{
		ProductName: productName,
		Ingredients: make([]analysis.IngredientDetail, 0, len(records)),
	}

	var (
		scoreSum int
		highRisk []string
		moderate []string
	)
	for _, rec := range records {
		result.Ingredients = append(result.Ingredients, analysis.IngredientDetail{
			CanonicalName: rec.CanonicalName,
			EcoScore:      rec.EcoScore,
			RiskLevel:     string(rec.RiskLevel),
			Benefits:      rec.Benefits,
			RisksDetailed: rec.RisksDetailed,
			Sources:       providerNames(rec.Sources),
			UpdatedAt:     rec.UpdatedAt,
		})
		scoreSum += rec.EcoScore
		switch rec.RiskLevel {
		case ingredient.RiskHigh:
			highRisk = append(highRisk, rec.CanonicalName)
		case ingredient.RiskModerate:
			moderate = append(moderate, rec.CanonicalName)
		}
	}

	if len(records) == 0 {
		result.AvgEcoScore = ingredient.RiskUnknown.FallbackScore()
		result.Suitability = analysis.SuitabilityCaution
		result.Recommendations = "No recognizable ingredients were found on the label."
		return result, nil
	}

	result.AvgEcoScore = int(math.Round(float64(scoreSum) / float64(len(records))))
	sensitive := isSensitiveContext(userContext)

	switch {
	case sensitive && len(highRisk) > 0:
		result.Suitability = analysis.SuitabilityAvoid
	case result.AvgEcoScore >= e.cfg.Suitability.SuitableMin:
		result.Suitability = analysis.SuitabilitySuitable
	case result.AvgEcoScore >= e.cfg.Suitability.CautionMin:
		result.Suitability = analysis.SuitabilityCaution
	default:
		result.Suitability = analysis.SuitabilityAvoid
	}

	result.Recommendations = buildRecommendations(result.Suitability, result.AvgEcoScore, highRisk, moderate, sensitive)
	return result, nil
}

func providerNames(ids []ingredient.ProviderID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func buildRecommendations(verdict analysis.Suitability, avg int, highRisk, moderate []string, sensitive bool) string {
	var b strings.Builder
	switch verdict {
	case analysis.SuitabilitySuitable:
		fmt.Fprintf(&b, "This product scores %d/100 and looks suitable.", avg)
	case analysis.SuitabilityCaution:
		fmt.Fprintf(&b, "This product scores %d/100; use with caution.", avg)
	default:
		fmt.Fprintf(&b, "This product scores %d/100; consider avoiding it.", avg)
	}
	if len(highRisk) > 0 {
		fmt.Fprintf(&b, " High-risk ingredients: %s.", strings.Join(highRisk, ", "))
		if sensitive {
			b.WriteString(" Given your sensitivity profile, these are a particular concern.")
		}
	}
	if len(moderate) > 0 && len(highRisk) == 0 {
		fmt.Fprintf(&b, " Watch for: %s.", strings.Join(moderate, ", "))
	}
	return b.String()
}
