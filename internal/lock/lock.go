// Package lock guarantees at most one dispatch per campaign at a time.
package lock

import (
	"context"
	"strconv"
)

// Locker acquires a per-campaign dispatch lock. Acquire returns
// appErrors.ErrDispatchInProgress when the lock is already held.
type Locker interface {
	Acquire(ctx context.Context, campaignID int) (release func(), err error)
}

func key(campaignID int) string {
	return "dispatch:campaign:" + strconv.Itoa(campaignID)
}
