package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces out sends to stay under provider quotas. Wait blocks until the
// next send may start and only fails when ctx ends first.
type Pacer interface {
	Wait(ctx context.Context) error
}

var _ Pacer = (*rate.Limiter)(nil)

// NewPacer returns a limiter of perSecond sends, or nil when perSecond <= 0.
func NewPacer(perSecond float64) Pacer {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
