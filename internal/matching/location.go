package matching

import "strings"

// abbreviations maps common short forms to their canonical Nigerian city
// names, and vice versa is handled by normalizing both sides before compare.
var abbreviations = map[string]string{
	"los": "lagos",
	"fct": "abuja",
	"ph":  "port harcourt",
	"ib":  "ibadan",
}

// countrySynonyms maps informal country references to a canonical form.
var countrySynonyms = map[string]string{
	"naija":   "nigeria",
	"ng":      "nigeria",
	"nga":     "nigeria",
	"usa":     "united states",
	"us":      "united states",
	"uk":      "united kingdom",
	"gb":      "united kingdom",
}

// regionClusters groups Nigerian cities that recruiters and candidates treat
// as interchangeable for location purposes — the weakest matching tier,
// applied only when no direct or abbreviation match exists.
var regionClusters = map[string][]string{
	"lagos":         {"lagos", "ikeja", "lekki", "ajah", "yaba", "ikoyi", "victoria island"},
	"abuja":         {"abuja", "fct", "garki", "wuse", "gwarinpa"},
	"port harcourt": {"port harcourt", "ph", "rivers"},
	"south west":    {"lagos", "ibadan", "abeokuta", "akure", "osogbo"},
	"south south":   {"port harcourt", "benin city", "calabar", "uyo", "warri"},
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LocationPasses applies the §4.5.2 location hard filter.
func LocationPasses(prefLocations []string, willingToRelocate, userAcceptsRemote bool, jobRemoteAllowed bool, job LocationQuery) bool {
	if len(prefLocations) == 0 {
		return true
	}
	if userAcceptsRemote && jobRemoteAllowed {
		return true
	}
	if willingToRelocate && job.hasAny() {
		return true
	}

	for _, pref := range prefLocations {
		if locationMatches(pref, job) {
			return true
		}
	}
	return false
}

// LocationQuery is the subset of a canonical posting's location data the
// filter needs.
type LocationQuery struct {
	City, State, Country, DisplayLocation string
}

func (q LocationQuery) hasAny() bool {
	return q.City != "" || q.State != "" || q.Country != "" || q.DisplayLocation != ""
}

func locationMatches(pref string, job LocationQuery) bool {
	pref = normalize(pref)
	if pref == "" {
		return false
	}

	fields := []string{job.City, job.State, job.Country, job.DisplayLocation}

	// Tier 1: direct case-insensitive substring match.
	for _, f := range fields {
		f = normalize(f)
		if f == "" {
			continue
		}
		if strings.Contains(f, pref) || strings.Contains(pref, f) {
			return true
		}
	}

	// Tier 2: abbreviation table, either direction.
	prefExpanded := expandAbbrev(pref)
	for _, f := range fields {
		f = normalize(f)
		if f == "" {
			continue
		}
		fExpanded := expandAbbrev(f)
		if fExpanded == prefExpanded {
			return true
		}
		if strings.Contains(fExpanded, prefExpanded) || strings.Contains(prefExpanded, fExpanded) {
			return true
		}
	}

	// Tier 3: country synonym table.
	prefCountry := expandCountry(pref)
	jobCountry := expandCountry(normalize(job.Country))
	if prefCountry != "" && jobCountry != "" && prefCountry == jobCountry {
		return true
	}

	// Tier 4 (weakest): same-region cluster.
	return sameRegion(pref, fields)
}

func expandAbbrev(s string) string {
	if full, ok := abbreviations[s]; ok {
		return full
	}
	return s
}

func expandCountry(s string) string {
	if s == "" {
		return ""
	}
	if canon, ok := countrySynonyms[s]; ok {
		return canon
	}
	return s
}

func sameRegion(pref string, jobFields []string) bool {
	for _, members := range regionClusters {
		if !containsNorm(members, pref) {
			continue
		}
		for _, f := range jobFields {
			f = normalize(f)
			if f == "" {
				continue
			}
			if containsNorm(members, f) {
				return true
			}
		}
	}
	return false
}

func containsNorm(list []string, target string) bool {
	for _, v := range list {
		if v == target || strings.Contains(target, v) || strings.Contains(v, target) {
			return true
		}
	}
	return false
}
