package matching

import "strings"

// ratesToUSD is a static snapshot of currency conversion rates; updates are
// deployment events, per spec §4.5.2.
var ratesToUSD = map[string]float64{
	"USD": 1.0,
	"NGN": 1.0 / 1500.0,
	"EUR": 1.08,
	"GBP": 1.27,
}

// ConvertCurrency converts amount from one currency to another via USD.
// ok is false when either currency is absent from the rate table — callers
// decide whether that's an error or a pass-through (Open Question (b)).
func ConvertCurrency(amount float64, from, to string) (float64, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, true
	}
	fromRate, ok := ratesToUSD[from]
	if !ok {
		return 0, false
	}
	toRate, ok := ratesToUSD[to]
	if !ok {
		return 0, false
	}
	usd := amount * fromRate
	return usd / toRate, true
}
