package enrichment

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jobmate/alertpipeline/internal/model"
)

// defaultSalaryCurrency is the source region's currency, used when the
// model omits one (spec §4.2 step 4).
const defaultSalaryCurrency = "NGN"

var salaryAmountPattern = regexp.MustCompile(`[\d,]+`)

// parseExplicitSalary extracts the direct-tier salary range from the raw
// scraped free-text field (e.g. "₦150,000 - ₦250,000 per month"), mirroring
// the scraper's own amount/currency extraction: pull every digit run, take
// the first as the floor and the second (if present) as the ceiling, and
// infer currency from whichever symbol or code appears in the string.
func parseExplicitSalary(raw string) model.SalaryRange {
	r := model.SalaryRange{Period: "monthly"}
	if raw == "" {
		return r
	}

	amounts := salaryAmountPattern.FindAllString(raw, -1)
	var parsed []int
	for _, a := range amounts {
		n, err := strconv.Atoi(strings.ReplaceAll(a, ",", ""))
		if err != nil {
			continue
		}
		parsed = append(parsed, n)
	}
	switch len(parsed) {
	case 0:
		return r
	case 1:
		r.Min, r.Max = &parsed[0], &parsed[0]
	default:
		r.Min, r.Max = &parsed[0], &parsed[1]
	}

	switch {
	case strings.Contains(raw, "₦") || strings.Contains(raw, "NGN"):
		r.Currency = "NGN"
	case strings.Contains(raw, "$") || strings.Contains(raw, "USD"):
		r.Currency = "USD"
	case strings.Contains(raw, "€") || strings.Contains(raw, "EUR"):
		r.Currency = "EUR"
	case strings.Contains(raw, "£") || strings.Contains(raw, "GBP"):
		r.Currency = "GBP"
	default:
		r.Currency = defaultSalaryCurrency
	}
	return r
}

func normalizeSalary(min, max *int, currency *string) model.SalaryRange {
	r := model.SalaryRange{Min: min, Max: max, Period: "monthly"}
	if currency != nil && *currency != "" {
		r.Currency = *currency
	} else {
		r.Currency = defaultSalaryCurrency
	}

	switch {
	case r.Min == nil && r.Max != nil:
		v := *r.Max
		r.Min = &v
	case r.Max == nil && r.Min != nil:
		v := *r.Min
		r.Max = &v
	}
	return r
}

// clampYears enforces the [0, 50] range from spec §4.2.
func clampYears(min, max *int) (int, int) {
	lo, hi := 0, 0
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	} else {
		hi = lo
	}
	if lo < 0 {
		lo = 0
	}
	if lo > 50 {
		lo = 50
	}
	if hi < lo {
		hi = lo
	}
	if hi > 50 {
		hi = 50
	}
	return lo, hi
}
