package enrichment

import "testing"

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestNormalizeSalary(t *testing.T) {
	t.Run("missing currency defaults to NGN", func(t *testing.T) {
		r := normalizeSalary(intPtr(100000), intPtr(200000), nil)
		if r.Currency != defaultSalaryCurrency {
			t.Errorf("Currency = %q, want %q", r.Currency, defaultSalaryCurrency)
		}
	})

	t.Run("explicit currency is kept", func(t *testing.T) {
		r := normalizeSalary(intPtr(1000), intPtr(2000), strPtr("USD"))
		if r.Currency != "USD" {
			t.Errorf("Currency = %q, want USD", r.Currency)
		}
	})

	t.Run("only max given fills min", func(t *testing.T) {
		r := normalizeSalary(nil, intPtr(500000), nil)
		if r.Min == nil || *r.Min != 500000 {
			t.Errorf("Min = %v, want 500000", r.Min)
		}
	})

	t.Run("only min given fills max", func(t *testing.T) {
		r := normalizeSalary(intPtr(300000), nil, nil)
		if r.Max == nil || *r.Max != 300000 {
			t.Errorf("Max = %v, want 300000", r.Max)
		}
	})

	t.Run("both nil stays nil", func(t *testing.T) {
		r := normalizeSalary(nil, nil, nil)
		if r.Min != nil || r.Max != nil {
			t.Errorf("Min/Max = %v/%v, want both nil", r.Min, r.Max)
		}
	})
}

func TestParseExplicitSalary(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantMin      *int
		wantMax      *int
		wantCurrency string
	}{
		{"empty string yields no range", "", nil, nil, ""},
		{"range with naira symbol", "₦150,000 - ₦250,000 per month", intPtr(150000), intPtr(250000), "NGN"},
		{"single amount with dollar sign", "$75,000/year", intPtr(75000), intPtr(75000), "USD"},
		{"range with currency code", "80000-120000 USD", intPtr(80000), intPtr(120000), "USD"},
		{"no recognizable currency defaults to NGN", "150,000 - 250,000", intPtr(150000), intPtr(250000), "NGN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseExplicitSalary(tt.raw)
			if (got.Min == nil) != (tt.wantMin == nil) || (got.Min != nil && *got.Min != *tt.wantMin) {
				t.Errorf("Min = %v, want %v", got.Min, tt.wantMin)
			}
			if (got.Max == nil) != (tt.wantMax == nil) || (got.Max != nil && *got.Max != *tt.wantMax) {
				t.Errorf("Max = %v, want %v", got.Max, tt.wantMax)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCurrency)
			}
		})
	}
}

func TestClampYears(t *testing.T) {
	tests := []struct {
		name     string
		min, max *int
		wantLo   int
		wantHi   int
	}{
		{"normal range unchanged", intPtr(2), intPtr(5), 2, 5},
		{"negative min clamped to 0", intPtr(-3), intPtr(5), 0, 5},
		{"max above 50 clamped", intPtr(0), intPtr(60), 0, 50},
		{"min above 50 clamped", intPtr(55), intPtr(60), 50, 50},
		{"max below min raised to min", intPtr(10), intPtr(5), 10, 10},
		{"nil max mirrors min", intPtr(3), nil, 3, 3},
		{"both nil is zero", nil, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := clampYears(tt.min, tt.max)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("clampYears(%v, %v) = (%d, %d), want (%d, %d)", tt.min, tt.max, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}
