package matching

import (
	"math"
	"testing"
)

func TestConvertCurrency(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		from, to   string
		wantOK     bool
		wantApprox float64
	}{
		{"same currency passes through unchanged", 500000, "NGN", "ngn", true, 500000},
		{"NGN to USD", 1500, "NGN", "USD", true, 1},
		{"USD to NGN", 1, "usd", "NGN", true, 1500},
		{"unknown from currency", 100, "ZZZ", "USD", false, 0},
		{"unknown to currency", 100, "USD", "ZZZ", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertCurrency(tt.amount, tt.from, tt.to)
			if ok != tt.wantOK {
				t.Fatalf("ConvertCurrency(%v, %q, %q) ok = %v, want %v", tt.amount, tt.from, tt.to, ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.wantApprox) > 0.01 {
				t.Errorf("ConvertCurrency(%v, %q, %q) = %v, want ~%v", tt.amount, tt.from, tt.to, got, tt.wantApprox)
			}
		})
	}
}
