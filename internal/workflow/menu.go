package workflow

import (
	"time"

	"shiftbot-backend/internal/models"
)

// DeriveMenuState decides which main-menu button a worker sees. It must be
// computed fresh on every render; elapsed time keeps moving, so a cached
// result goes stale.
func DeriveMenuState(active bool, shiftStart time.Time, now time.Time) models.MenuState {
	if !active {
		return models.MenuCanStart
	}
	// Active without a recorded start instant should not happen; fall back to
	// letting the worker finish rather than trapping them in the shift.
	if shiftStart.IsZero() {
		return models.MenuCanFinish
	}
	if now.Sub(shiftStart) < time.Hour {
		return models.MenuInProgressOnly
	}
	return models.MenuCanFinish
}
