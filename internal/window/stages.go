package window

import (
	"time"

	"github.com/jobmate/alertpipeline/internal/model"
)

// StageThreshold is the elapsed-time floor at which a stage becomes due.
var StageThreshold = map[model.ReminderStage]time.Duration{
	model.StageS1: 16 * time.Hour,
	model.StageS2: 19 * time.Hour,
	model.StageS3: 21 * time.Hour,
	model.StageS4: 23 * time.Hour,
	model.StageS5: 23*time.Hour + 45*time.Minute,
}

// DefaultWindowExpiry is the provider-imposed outbound messaging window
// (spec §4.7) used when no explicit duration is configured. At elapsed >=
// expiry, the window transitions to expired.
const DefaultWindowExpiry = 24 * time.Hour

// DueStage bands elapsed time into the highest threshold crossed and
// returns that stage unless it has already been sent, reproducing the
// original system's
// get_reminder_slot: re-derive the correct stage from elapsed time on every
// scan rather than trusting a stored "next stage" pointer, so an
// irregularly-scanned window still gets exactly the highest-due stage and
// never a lower one already superseded.
func DueStage(elapsed time.Duration, sent map[model.ReminderStage]bool) (model.ReminderStage, bool) {
	var due model.ReminderStage
	for _, stage := range model.ReminderStages {
		if elapsed < StageThreshold[stage] {
			break
		}
		due = stage
	}
	if due == "" || sent[due] {
		return "", false
	}
	return due, true
}

// IsExpired reports whether elapsed time has crossed the window's expiry
// boundary. Elapsed == expiry is expired; expiry - 1s is still active (spec
// §8 boundary behavior).
func IsExpired(elapsed, expiry time.Duration) bool {
	return elapsed >= expiry
}
