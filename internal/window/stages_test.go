package window_test

import (
	"testing"
	"time"

	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/window"
)

func TestDueStage(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		sent      map[model.ReminderStage]bool
		wantStage model.ReminderStage
		wantFound bool
	}{
		{"before S1 threshold nothing due", 15 * time.Hour, nil, "", false},
		{"at S1 threshold S1 due", 16 * time.Hour, nil, model.StageS1, true},
		{"between S1 and S2 only S1 due", 18 * time.Hour, nil, model.StageS1, true},
		{"S1 already sent, S2 due at its threshold", 19 * time.Hour, map[model.ReminderStage]bool{model.StageS1: true}, model.StageS2, true},
		{"past all thresholds, none sent, highest wins", 23*time.Hour + 50*time.Minute, nil, model.StageS5, true},
		{"all sent, nothing due", 23*time.Hour + 50*time.Minute, map[model.ReminderStage]bool{
			model.StageS1: true, model.StageS2: true, model.StageS3: true, model.StageS4: true, model.StageS5: true,
		}, "", false},
		{"irregular scan skips straight to highest unsent", 22 * time.Hour, nil, model.StageS3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStage, gotFound := window.DueStage(tt.elapsed, tt.sent)
			if gotFound != tt.wantFound || gotStage != tt.wantStage {
				t.Errorf("DueStage(%v, %v) = (%q, %v), want (%q, %v)", tt.elapsed, tt.sent, gotStage, gotFound, tt.wantStage, tt.wantFound)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		expiry  time.Duration
		want    bool
	}{
		{"one second before boundary is active", window.DefaultWindowExpiry - time.Second, window.DefaultWindowExpiry, false},
		{"exactly at boundary is expired", window.DefaultWindowExpiry, window.DefaultWindowExpiry, true},
		{"past boundary is expired", window.DefaultWindowExpiry + time.Hour, window.DefaultWindowExpiry, true},
		{"custom shorter expiry applies", 2 * time.Hour, time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window.IsExpired(tt.elapsed, tt.expiry); got != tt.want {
				t.Errorf("IsExpired(%v, %v) = %v, want %v", tt.elapsed, tt.expiry, got, tt.want)
			}
		})
	}
}
