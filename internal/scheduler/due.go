// Package scheduler drives the reminder state machine. It never stores a
// per-message schedule: each scan derives what is due from the cart row and
// the current step configuration, so config changes apply to carts already
// in flight.
package scheduler

import (
	"time"

	"github.com/cartwisp/recovery-gateway/internal/config"
	"github.com/cartwisp/recovery-gateway/internal/model"
)

// NextDueStep picks the reminder to dispatch for a cart, if any. Steps are
// evaluated in order; already-sent and disabled steps are skipped and the
// first remaining step whose delay has elapsed since the cart's last update
// wins. At most one step per cart per scan.
func NextDueStep(cart *model.AbandonedCart, steps [model.ReminderSteps]config.StepConfig, now time.Time) (config.StepConfig, bool) {
	if cart.Status != model.CartStatusActive {
		return config.StepConfig{}, false
	}

	elapsed := now.Sub(cart.UpdatedAt)
	for _, step := range steps {
		if cart.StepSent(step.Number) {
			continue
		}
		if !step.Enabled {
			continue
		}
		if elapsed >= step.Delay {
			return step, true
		}
	}
	return config.StepConfig{}, false
}

// IsLastEnabledUnsent reports whether flipping the given step leaves no
// enabled step unsent, meaning the cart's reminder sequence is finished.
func IsLastEnabledUnsent(cart *model.AbandonedCart, steps [model.ReminderSteps]config.StepConfig, step int) bool {
	for _, s := range steps {
		if !s.Enabled || s.Number == step {
			continue
		}
		if !cart.StepSent(s.Number) {
			return false
		}
	}
	return true
}
