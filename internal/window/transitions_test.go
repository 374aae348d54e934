package window_test

import (
	"testing"

	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/window"
)

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		name string
		from model.WindowStatus
		to   model.WindowStatus
		want bool
	}{
		{"new window opens active", "", model.WindowActive, true},
		{"new window cannot open expired", "", model.WindowExpired, false},
		{"active resets on inbound", model.WindowActive, model.WindowActive, true},
		{"active expires", model.WindowActive, model.WindowExpired, true},
		{"expired never transitions to active directly", model.WindowExpired, model.WindowActive, false},
		{"expired never transitions to expired", model.WindowExpired, model.WindowExpired, false},
		{"unknown status rejected", model.WindowStatus("bogus"), model.WindowActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window.IsTransitionAllowed(tt.from, tt.to); got != tt.want {
				t.Errorf("IsTransitionAllowed(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
