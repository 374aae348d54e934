// Package window is the Window Manager: owns the 24-hour outbound window
// per user, reminder-stage selection, and idempotent reminder dispatch.
//
// State graph:
//
//	(none) ──inbound──► ACTIVE ──t≥24h──► EXPIRED ──inbound──► (new ACTIVE)
//	           ▲                                                   │
//	           └───────────────────inbound (resets t)──────────────┘
package window

import "github.com/jobmate/alertpipeline/internal/model"

// IsTransitionAllowed reports whether moving a window from → to is a valid
// state-machine edge. Unlike a typed enum FSM, window expiry is
// time-triggered rather than event-triggered, so the only event-triggered
// edges are ACTIVE→ACTIVE (reset) and EXPIRED→ACTIVE (reopen via a brand
// new window row, handled by OpenWindow).
func IsTransitionAllowed(from, to model.WindowStatus) bool {
	switch from {
	case model.WindowActive:
		return to == model.WindowActive || to == model.WindowExpired
	case model.WindowExpired:
		return false // a new window is opened, not transitioned into, from expired
	case "":
		return to == model.WindowActive
	default:
		return false
	}
}
