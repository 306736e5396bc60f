package config

// Fixed vocabularies used by the free-text query interpreter. These are
// process-wide constant tables, loaded once and never mutated.

// Gazetteer is the list of place names recognized in free-text queries.
// Matching is case-insensitive substring containment; first match wins.
var Gazetteer = []string{
	"gaborone",
	"francistown",
	"molepolole",
	"maun",
	"serowe",
	"kasane",
	"palapye",
	"kanye",
	"mochudi",
	"lobatse",
	"mahalapye",
}

// DescriptiveTerms are the adjectives retained for secondary substring
// matching when a query mixes them with structured constraints.
var DescriptiveTerms = []string{
	"modern",
	"luxury",
	"new",
	"renovated",
	"spacious",
	"cozy",
	"family",
}

// WordNumbers maps spelled-out bedroom counts to integers.
var WordNumbers = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
}

// PropertyTypeClass groups synonyms under a canonical property type.
type PropertyTypeClass struct {
	Category string
	Terms    []string
}

// PropertyTypeClasses are checked in this fixed order; the first class with
// a matching term wins.
var PropertyTypeClasses = []PropertyTypeClass{
	{Category: "house", Terms: []string{"house", "standalone", "detached"}},
	{Category: "apartment", Terms: []string{"apartment", "flat", "unit"}},
	{Category: "townhouse", Terms: []string{"townhouse", "townhome"}},
	{Category: "plot", Terms: []string{"plot", "land", "vacant"}},
	{Category: "farm", Terms: []string{"farm", "agricultural"}},
	{Category: "commercial", Terms: []string{"commercial", "office", "retail"}},
}

// PlatformAgencyName is the fixed agency identity stamped on locally stored
// listings.
const PlatformAgencyName = "Khumo Properties"

// KnownLocation reports whether name is in the gazetteer.
func KnownLocation(name string) bool {
	for _, place := range Gazetteer {
		if place == name {
			return true
		}
	}
	return false
}
