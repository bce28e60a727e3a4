package promotion

import "time"

// ResolveStatus computes the effective status shown to users.
//
// Draft and paused are author overrides and win over the window. Every other stored
// value is replaced by the time-derived status: scheduled before StartAt, expired
// after EndAt, active otherwise. A promotion without a window is always active.
func ResolveStatus(stored Status, startAt, endAt *time.Time, now time.Time) Status {
	if stored == StatusPaused || stored == StatusDraft {
		return stored
	}
	if startAt != nil && now.Before(*startAt) {
		return StatusScheduled
	}
	if endAt != nil && now.After(*endAt) {
		return StatusExpired
	}
	return StatusActive
}
