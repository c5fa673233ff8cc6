package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

type priceBound int

const (
	boundMax priceBound = iota
	boundMin
	boundBetween
)

type pricePattern struct {
	re    *regexp.Regexp
	bound priceBound
}

const priceUnit = `(lakh|l|crore|cr|k)\b`

// pricePatterns are tried in order; the first match wins. Each unit-bearing
// pattern precedes its bare-number twin.
var pricePatterns = []pricePattern{
	{regexp.MustCompile(`(?i)under\s*(\d*\.?\d+)\s*` + priceUnit), boundMax},
	{regexp.MustCompile(`(?i)under\s*(\d+\.?\d*)`), boundMax},
	{regexp.MustCompile(`(?i)below\s*(\d*\.?\d+)\s*` + priceUnit), boundMax},
	{regexp.MustCompile(`(?i)below\s*(\d+\.?\d*)`), boundMax},
	{regexp.MustCompile(`(?i)less\s*than\s*(\d*\.?\d+)\s*` + priceUnit), boundMax},
	{regexp.MustCompile(`(?i)less\s*than\s*(\d+\.?\d*)`), boundMax},
	{regexp.MustCompile(`(?i)max\s*price\s*(\d*\.?\d+)\s*` + priceUnit), boundMax},
	{regexp.MustCompile(`(?i)max\s*price\s*(\d+\.?\d*)`), boundMax},

	{regexp.MustCompile(`(?i)above\s*(\d*\.?\d+)\s*` + priceUnit), boundMin},
	{regexp.MustCompile(`(?i)above\s*(\d+\.?\d*)`), boundMin},
	{regexp.MustCompile(`(?i)over\s*(\d*\.?\d+)\s*` + priceUnit), boundMin},
	{regexp.MustCompile(`(?i)over\s*(\d+\.?\d*)`), boundMin},
	{regexp.MustCompile(`(?i)min\s*price\s*(\d*\.?\d+)\s*` + priceUnit), boundMin},
	{regexp.MustCompile(`(?i)min\s*price\s*(\d+\.?\d*)`), boundMin},

	{regexp.MustCompile(`(?i)between\s*(\d*\.?\d+)\s*(?:(lakh|l|crore|cr|k)\b)?\s*and\s*(\d*\.?\d+)\s*(?:` + priceUnit + `)?`), boundBetween},
}

var unitMultipliers = map[string]float64{
	"l":     1e5,
	"lakh":  1e5,
	"cr":    1e7,
	"crore": 1e7,
	"k":     1e3,
}

// knownCategories are tried in order; each term must appear as a whole
// word, so "headphones" is not read as "phones".
var knownCategories = []struct {
	term     *regexp.Regexp
	category string
}{
	{categoryTerm("smartphones"), "smartphones"},
	{categoryTerm("mobiles"), "smartphones"},
	{categoryTerm("phones"), "smartphones"},
	{categoryTerm("laptops"), "laptops"},
	{categoryTerm("computers"), "computers"},
	{categoryTerm("headphones"), "headphones"},
	{categoryTerm("earphones"), "headphones"},
	{categoryTerm("televisions"), "televisions"},
	{categoryTerm("tv"), "televisions"},
}

func categoryTerm(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + term + `\b`)
}

var stopWords = map[string]struct{}{
	"best": {}, "top": {}, "show": {}, "me": {}, "find": {}, "search": {}, "for": {},
	"what": {}, "are": {}, "is": {}, "display": {}, "get": {}, "tell": {}, "give": {},
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {}, "with": {},
	"about": {}, "under": {}, "above": {}, "from": {},
}

// ParseQuery extracts an optional price range, the first known category
// and the remaining keywords from a catalog query.
func ParseQuery(query string) domain.ParsedQuery {
	rest := strings.ToLower(query)
	parsed := domain.ParsedQuery{Keywords: []string{}}

	for _, p := range pricePatterns {
		loc := p.re.FindStringSubmatchIndex(rest)
		if loc == nil {
			continue
		}
		group := func(n int) string {
			if loc[2*n] < 0 {
				return ""
			}
			return rest[loc[2*n]:loc[2*n+1]]
		}

		switch p.bound {
		case boundBetween:
			lo, okLo := priceValue(group(1), group(2))
			hi, okHi := priceValue(group(3), group(4))
			if okLo {
				parsed.MinPrice = &lo
			}
			if okHi {
				parsed.MaxPrice = &hi
			}
		default:
			v, ok := priceValue(group(1), group(2))
			if ok && p.bound == boundMax {
				parsed.MaxPrice = &v
			} else if ok {
				parsed.MinPrice = &v
			}
		}

		rest = strings.TrimSpace(rest[:loc[0]] + rest[loc[1]:])
		break
	}

	for _, c := range knownCategories {
		if c.term.MatchString(rest) {
			parsed.Category = c.category
			rest = strings.TrimSpace(c.term.ReplaceAllString(rest, ""))
			break
		}
	}

	for _, tok := range strings.Split(rest, " ") {
		if utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		parsed.Keywords = append(parsed.Keywords, tok)
	}

	if parsed.Category != "" && len(parsed.Keywords) == 0 {
		parsed.Keywords = append(parsed.Keywords, parsed.Category)
	}
	return parsed
}

func priceValue(number, unit string) (float64, bool) {
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	if m, ok := unitMultipliers[strings.ToLower(unit)]; ok {
		v *= m
	}
	return v, true
}
