package service

import (
	"context"

	"github.com/unclebandit/mailing-service/internal/lock"
)

// Trigger runs a dispatch under the per-campaign lock. Every trigger surface
// (HTTP, CLI, queue worker, scheduler) goes through it.
type Trigger struct {
	Dispatcher *Dispatcher
	Locker     lock.Locker
}

// Fire dispatches the campaign, returning appErrors.ErrDispatchInProgress
// when another invocation holds the lock.
func (t *Trigger) Fire(ctx context.Context, campaignID int) (*DispatchResult, error) {
	release, err := t.Locker.Acquire(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer release()

	return t.Dispatcher.DispatchByID(ctx, campaignID)
}
