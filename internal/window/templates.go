package window

import (
	"fmt"

	"github.com/jobmate/alertpipeline/internal/model"
)

// RenderReminder renders the stage-specific reminder body. S4 and S5 carry
// explicit urgency phrasing (spec §6.2); the S1 body additionally varies on
// whether any jobs were already delivered in the window, the market-update
// framing carried over from the original reminder copy.
func RenderReminder(stage model.ReminderStage, jobsSentInWindow int) string {
	switch stage {
	case model.StageS1:
		if jobsSentInWindow > 0 {
			return fmt.Sprintf("👋 Still here! We've sent you %d job match(es) so far today — reply anytime and we'll keep the conversation open for more.", jobsSentInWindow)
		}
		return "👋 Just checking in — reply with anything and we'll keep finding jobs for you."
	case model.StageS2:
		return "📋 Quick summary: your conversation window is past the halfway mark. Reply now so we don't lose touch and can keep sending matches."
	case model.StageS3:
		return "⏳ Heads up — your window closes soon. Reply now to keep receiving job alerts without interruption."
	case model.StageS4:
		return "🚨 Last hour! Your outbound window closes in under an hour. Reply now or we'll have to wait for your next message before reaching out again."
	case model.StageS5:
		return "📣 Last call — this window closes in minutes. Reply now to stay connected, or message us anytime to start a fresh one."
	default:
		return "👋 Reply anytime to keep this conversation going."
	}
}

// RenderWelcome is offered when a user has no preferences yet.
func RenderWelcome() string {
	return "👋 Welcome! Tell us the roles, locations, and salary range you're looking for and we'll start sending matching jobs."
}
