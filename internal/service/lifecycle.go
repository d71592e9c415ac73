package service

import (
	"time"

	"github.com/unclebandit/mailing-service/internal/model"
)

// statusRank orders the natural lifecycle. Disabled sits outside it.
var statusRank = map[string]int{
	model.StatusCreated:   0,
	model.StatusStarted:   1,
	model.StatusCompleted: 2,
}

// Gate decides whether a campaign may run its send loop at now. When it may
// not, the returned status is the one to persist: disabled stays disabled,
// anything else is forced to completed.
func Gate(c *model.Campaign, now time.Time) (dispatchable bool, status string) {
	if c.Status == model.StatusDisabled {
		return false, model.StatusDisabled
	}
	if !c.IsActive || c.Status == model.StatusCompleted || now.After(c.EndTime) {
		return false, model.StatusCompleted
	}
	return true, c.Status
}

// AfterLoop returns the status after a send loop that ran at now.
// created advances to started, and an elapsed window completes the campaign
// in the same step.
func AfterLoop(status string, endTime, now time.Time) string {
	next := status
	if next == model.StatusCreated {
		next = model.StatusStarted
	}
	if !now.Before(endTime) {
		next = model.StatusCompleted
	}
	return next
}

// CanTransition reports whether moving from one status to another keeps the
// lifecycle monotonic. Only the explicit disable action enters disabled, and
// nothing leaves it.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if from == model.StatusDisabled {
		return false
	}
	if to == model.StatusDisabled {
		return true
	}
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr > fr
}
