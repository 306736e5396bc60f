// Package textquery turns a free-text property search into structured
// criteria. It is a fixed cascade of keyword and regex rules, not a learned
// model: every rule runs against the whole input and may overwrite what an
// earlier rule set for the same field, so for ambiguous inputs the last
// matching rule wins.
package textquery

import (
	"regexp"
	"strconv"
	"strings"

	"khumo/server/config"
	"khumo/server/internal/models"
)

var (
	rangePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([km])?\s*(?:to|-)\s*(\d+(?:\.\d+)?)\s*([km])?`)
	underPattern = regexp.MustCompile(`(?:under|below|less than)\s+(\d+(?:\.\d+)?)\s*([km])?`)
	overPattern  = regexp.MustCompile(`\bover\s+(\d+(?:\.\d+)?)\s*([km])?`)
	abovePattern = regexp.MustCompile(`\babove\s+(\d+(?:\.\d+)?)\s*([km])?`)

	bedsDigitPattern = regexp.MustCompile(`(\d+)\s*(?:bedroomed|bedrooms|bedroom|beds|bed)\b`)
	bedsWordPattern  = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight)\s*(?:bedroomed|bedrooms|bedroom|beds|bed)\b`)

	typePatterns = compileTypePatterns()
)

type typePattern struct {
	category string
	pattern  *regexp.Regexp
}

func compileTypePatterns() []typePattern {
	patterns := make([]typePattern, 0, len(config.PropertyTypeClasses))
	for _, class := range config.PropertyTypeClasses {
		expr := `\b(?:` + strings.Join(class.Terms, "|") + `)\b`
		patterns = append(patterns, typePattern{
			category: class.Category,
			pattern:  regexp.MustCompile(expr),
		})
	}
	return patterns
}

// Parse extracts structured search criteria from a free-text query. It is
// pure and total: any string is a valid query, and fields the query does not
// mention are simply left unset.
func Parse(query string) models.SearchCriteria {
	criteria := models.SearchCriteria{}
	lower := strings.ToLower(query)

	// Descriptive adjectives, kept for secondary substring matching
	var terms []string
	for _, term := range config.DescriptiveTerms {
		if strings.Contains(lower, term) {
			terms = append(terms, term)
		}
	}
	if len(terms) > 0 {
		criteria.Query = strings.Join(terms, " ")
	}

	// Price rules run in fixed order (range, under, over, above) and each
	// overwrites the bound it targets, so e.g. "over 500k to 1m" ends up
	// with the range's bounds and then over's floor.
	if m := rangePattern.FindStringSubmatch(lower); m != nil {
		min := amount(m[1], m[2])
		max := amount(m[3], m[4])
		criteria.MinPrice = &min
		criteria.MaxPrice = &max
	}
	if m := underPattern.FindStringSubmatch(lower); m != nil {
		max := amount(m[1], m[2])
		criteria.MaxPrice = &max
	}
	if m := overPattern.FindStringSubmatch(lower); m != nil {
		min := amount(m[1], m[2])
		criteria.MinPrice = &min
	}
	if m := abovePattern.FindStringSubmatch(lower); m != nil {
		min := amount(m[1], m[2])
		criteria.MinPrice = &min
	}

	// Bedrooms: digit form takes precedence over spelled-out numbers
	if m := bedsDigitPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			criteria.Beds = &n
		}
	} else if m := bedsWordPattern.FindStringSubmatch(lower); m != nil {
		n := config.WordNumbers[m[1]]
		criteria.Beds = &n
	}

	// Property type: fixed category order, first match wins
	for _, tp := range typePatterns {
		if tp.pattern.MatchString(lower) {
			criteria.Type = tp.category
			break
		}
	}

	// Location: gazetteer containment, first match wins
	for _, place := range config.Gazetteer {
		if strings.Contains(lower, place) {
			criteria.Location = place
			break
		}
	}

	return criteria
}

// amount parses a numeric literal with an optional shorthand suffix
// (k = thousand, m = million).
func amount(num, suffix string) float64 {
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	switch suffix {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	}
	return value
}
