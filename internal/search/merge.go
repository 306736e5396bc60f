package search

import (
	"sort"
	"strings"

	"khumo/server/internal/models"
)

// MergeAndDedupe combines the local and external result sets. Every local
// record is kept unconditionally; an external record is dropped when its
// address is a case-insensitive substring match in either direction against
// any local record's address. The heuristic is intentionally loose; short
// overlapping addresses will false-positive and that is accepted.
func MergeAndDedupe(local, external []models.UnifiedProperty) []models.UnifiedProperty {
	merged := make([]models.UnifiedProperty, 0, len(local)+len(external))
	seen := make(map[string]struct{}, len(local)+len(external))

	for _, property := range local {
		if _, dup := seen[property.ID]; dup {
			continue
		}
		seen[property.ID] = struct{}{}
		merged = append(merged, property)
	}

	for _, property := range external {
		if _, dup := seen[property.ID]; dup {
			continue
		}
		if matchesLocalAddress(property, local) {
			continue
		}
		seen[property.ID] = struct{}{}
		merged = append(merged, property)
	}

	return merged
}

// matchesLocalAddress checks bidirectional substring containment against all
// local addresses, on both the full address and the street segment before
// the first comma, so "123 Main Street" still collides with
// "123 Main St, Gaborone". Externals with no address at all are kept; a
// blank string would otherwise "contain" into every local record.
func matchesLocalAddress(external models.UnifiedProperty, local []models.UnifiedProperty) bool {
	extAddr := strings.ToLower(strings.TrimSpace(external.Address))
	if extAddr == "" {
		return false
	}
	extStreet := streetSegment(extAddr)

	for _, property := range local {
		localAddr := strings.ToLower(strings.TrimSpace(property.Address))
		if localAddr == "" {
			continue
		}
		if containsEitherWay(localAddr, extAddr) {
			return true
		}
		if containsEitherWay(streetSegment(localAddr), extStreet) {
			return true
		}
	}
	return false
}

func containsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// streetSegment returns the part of an address before the first comma.
func streetSegment(address string) string {
	if idx := strings.Index(address, ","); idx >= 0 {
		return strings.TrimSpace(address[:idx])
	}
	return address
}

// Rank orders a merged result set. Local records always sort before external
// ones regardless of the requested sort; within the same source the sort key
// applies: price_low ascending, price_high descending, anything else by
// external relevance score descending (missing score counts as zero).
func Rank(results []models.UnifiedProperty, sortKey string) []models.UnifiedProperty {
	ranked := make([]models.UnifiedProperty, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := sourcePriority(ranked[i].Source), sourcePriority(ranked[j].Source)
		if pi != pj {
			return pi < pj
		}

		switch sortKey {
		case "price_low":
			return ranked[i].Price < ranked[j].Price
		case "price_high":
			return ranked[i].Price > ranked[j].Price
		default:
			return scoreOf(ranked[i]) > scoreOf(ranked[j])
		}
	})

	return ranked
}

func sourcePriority(source string) int {
	if source == models.SourceLocal {
		return 0
	}
	return 1
}

func scoreOf(property models.UnifiedProperty) float64 {
	if property.Score == nil {
		return 0
	}
	return *property.Score
}
