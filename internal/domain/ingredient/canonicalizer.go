package ingredient

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalName is the normalized, synonym-collapsed identifier of an
// ingredient. It is the key for caches, the relational store, and the
// document mirror. The zero value is invalid; obtain one through
// Canonicalize.
type CanonicalName string

func (c CanonicalName) String() string { return string(c) }

// stripMarks decomposes to NFD, removes combining marks (accents), and
// recomposes. "Pantothénique" → "Pantothenique".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// specialRunes translates Greek letters and symbol runes that appear in
// label text. Translations that produce words get surrounding spaces so
// "α-tocopherol" becomes "alpha tocopherol", not "alphatocopherol".
var specialRunes = map[rune]string{
	'µ': "u", // micro sign U+00B5
	'μ': "u", // Greek small mu
	'α': " alpha ",
	'β': " beta ",
	'γ': " gamma ",
	'ω': " omega ",
	'&': " and ",
	'+': " ",
	'*': " ",
	'®': " ",
	'™': " ",
}

var (
	// parenthetical groups are dropped entirely: "Water (Aqua)" → "Water".
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

	// measurement matches quantity tokens like "1 mg", "5 ug/l", "0.1 ppm",
	// "20%". Units form a closed set; an optional "/denominator" is allowed.
	measurement = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*(?:mg|g|ug|mcg|ml|l|ppm|ppb|%)(?:\s*/\s*(?:mg|g|ug|mcg|ml|l))?$`)

	whitespace = regexp.MustCompile(`\s+`)
)

// stopwords are tokens that survive normalization but carry no ingredient
// meaning; OCR and list headers produce them routinely.
var stopwords = map[string]struct{}{
	"and": {}, "or": {}, "with": {}, "may": {}, "contain": {},
	"contains": {}, "list": {}, "ingredient": {}, "ingredients": {},
	"free": {}, "new": {}, "the": {},
}

// minCanonicalLen rejects fragments shorter than three characters after
// normalization; they are almost always OCR shrapnel.
const minCanonicalLen = 3

// Canonicalize maps a raw label token to its CanonicalName. ok=false means
// the token is not an ingredient (measurement, stopword, too short, empty)
// and must be discarded. The function is deterministic and does no I/O.
//
// Two inputs differing only in case, Unicode form, accents, or surrounding
// whitespace canonicalize identically, and the function is idempotent:
// Canonicalize(string(name)) returns name.
func Canonicalize(raw string) (CanonicalName, bool) {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		// Malformed UTF-8; treat as a non-ingredient token.
		return "", false
	}

	s = parenthetical.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := specialRunes[r]; ok {
			b.WriteString(repl)
			continue
		}
		switch {
		case r == '-' || r == '/' || r == '\\' || r == ',' || r == ';' ||
			r == ':' || r == '.' || r == '(' || r == ')' || r == '[' || r == ']':
			// Punctuation becomes a word boundary, except '.' and '/' inside
			// measurements, which are re-checked below on the raw form.
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '%':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered, _, _ = transform.String(stripMarks, lowered)
	lowered = strings.NewReplacer("µ", "u", "μ", "u").Replace(lowered)
	if measurement.MatchString(lowered) {
		return "", false
	}

	s = strings.ToLower(b.String())
	s = strings.ReplaceAll(s, "%", " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if s == "" {
		return "", false
	}

	s = applySynonyms(s)

	if len(s) < minCanonicalLen {
		return "", false
	}
	if _, isStop := stopwords[s]; isStop {
		return "", false
	}
	return CanonicalName(s), true
}
