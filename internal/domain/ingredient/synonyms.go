package ingredient

import "strings"

// synonymTable collapses INCI names, trade spellings, and translations onto
// one canonical form. Keys and values are already normalized (lowercase,
// single spaces); applySynonyms runs after normalization so lookup is a
// plain map access.
//
// The table is intentionally small: it covers the names that appear in
// multiple forms on real labels. Unlisted names pass through unchanged.
var synonymTable = map[string]string{
	// Water
	"aqua": "water",
	"eau":  "water",
	"agua": "water",

	// Fragrance
	"parfum":   "fragrance",
	"perfume":  "fragrance",
	"aroma":    "fragrance",
	"fragance": "fragrance", // frequent label misspelling

	// Parabens: labels use both the fused and the spaced form.
	"methyl paraben":   "methylparaben",
	"ethyl paraben":    "ethylparaben",
	"propyl paraben":   "propylparaben",
	"butyl paraben":    "butylparaben",
	"isobutyl paraben": "isobutylparaben",

	// Sulfates: abbreviations and spelling variants.
	"sls":                     "sodium lauryl sulfate",
	"sodium laurilsulfate":    "sodium lauryl sulfate",
	"sodium lauryl sulphate":  "sodium lauryl sulfate",
	"sles":                    "sodium laureth sulfate",
	"sodium laureth sulphate": "sodium laureth sulfate",

	// Vitamins and their INCI equivalents.
	"vitamin e":        "tocopherol",
	"alpha tocopherol": "tocopherol",
	"vitamin c":        "ascorbic acid",
	"vitamin b3":       "niacinamide",
	"vitamin b5":       "panthenol",
	"provitamin b5":    "panthenol",
	"vitamin a":        "retinol",

	// Common glycerin variants.
	"glycerine": "glycerin",
	"glycerol":  "glycerin",

	// Mineral oil family.
	"paraffinum liquidum": "mineral oil",
	"petrolatum":          "petrolatum",
	"vaseline":            "petrolatum",

	// Titanium dioxide CI number used on EU labels.
	"ci 77891": "titanium dioxide",
}

// applySynonyms maps a normalized name onto its canonical synonym, if one is
// registered. It also fuses "<x> paraben" spellings not in the table by
// joining the two words, matching INCI convention.
func applySynonyms(s string) string {
	if canonical, ok := synonymTable[s]; ok {
		return canonical
	}
	// Generic paraben fusion: "<prefix> paraben" → "<prefix>paraben".
	if rest, found := strings.CutSuffix(s, " paraben"); found && !strings.Contains(rest, " ") {
		return rest + "paraben"
	}
	return s
}
