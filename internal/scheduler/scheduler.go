// Package scheduler enqueues dispatch jobs for campaigns whose window is open.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/queue"
	"github.com/unclebandit/mailing-service/internal/service"
)

type DispatchableLister interface {
	ListDispatchable(ctx context.Context, now time.Time) ([]*model.Campaign, error)
}

// Scheduler periodically publishes a DispatchJob for every campaign that is
// active, not terminal and inside its window. The dispatch itself happens in
// the queue worker, under the per-campaign lock.
type Scheduler struct {
	campaigns DispatchableLister
	queue     queue.Queue
	clock     service.Clock
	interval  time.Duration
	log       zerolog.Logger
}

func New(campaigns DispatchableLister, q queue.Queue, clock service.Clock, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = service.SystemClock
	}
	return &Scheduler{
		campaigns: campaigns,
		queue:     q,
		clock:     clock,
		interval:  interval,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start runs the scheduler until the returned stop func is called or parent is done.
func (s *Scheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

// runOnce returns the number of jobs published.
func (s *Scheduler) runOnce(ctx context.Context) int {
	ready, err := s.campaigns.ListDispatchable(ctx, s.clock.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("list dispatchable campaigns failed")
		return 0
	}
	if len(ready) == 0 {
		return 0
	}

	published := 0
	for _, c := range ready {
		if err := s.queue.Publish(queue.TopicCampaignDispatch, queue.DispatchJob{CampaignID: c.ID}); err != nil {
			s.log.Error().Err(err).Int("campaign_id", c.ID).Msg("enqueue dispatch failed")
			continue
		}
		published++
	}
	s.log.Info().Int("ready", len(ready)).Int("published", published).Msg("scheduler tick")
	return published
}
