package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/mailing-service/internal/logger"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/queue"
	"github.com/unclebandit/mailing-service/internal/service"
)

type listerFunc func(ctx context.Context, now time.Time) ([]*model.Campaign, error)

func (f listerFunc) ListDispatchable(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	return f(ctx, now)
}

type memQueue struct {
	mu   sync.Mutex
	jobs []queue.DispatchJob
	fail map[int]bool
}

func (q *memQueue) Publish(_ string, payload any) error {
	job := payload.(queue.DispatchJob)
	if q.fail[job.CampaignID] {
		return errors.New("broker unavailable")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Subscribe(string, func(any) error) error { return nil }

func (q *memQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func TestRunOncePublishesReadyCampaigns(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var seen time.Time
	lister := listerFunc(func(_ context.Context, now time.Time) ([]*model.Campaign, error) {
		seen = now
		return []*model.Campaign{{ID: 1}, {ID: 2}, {ID: 3}}, nil
	})
	q := &memQueue{fail: map[int]bool{2: true}}

	s := New(lister, q, service.ClockFunc(func() time.Time { return at }), time.Minute, logger.Nop())
	published := s.runOnce(context.Background())

	assert.Equal(t, 2, published)
	assert.Equal(t, []queue.DispatchJob{{CampaignID: 1}, {CampaignID: 3}}, q.jobs)
	assert.True(t, seen.Equal(at))
}

func TestRunOnceSurvivesListFailure(t *testing.T) {
	lister := listerFunc(func(context.Context, time.Time) ([]*model.Campaign, error) {
		return nil, errors.New("connection reset")
	})
	s := New(lister, &memQueue{}, nil, 0, logger.Nop())

	assert.Zero(t, s.runOnce(context.Background()))
	assert.Equal(t, time.Minute, s.interval)
}

func TestStartTicksUntilStopped(t *testing.T) {
	lister := listerFunc(func(context.Context, time.Time) ([]*model.Campaign, error) {
		return []*model.Campaign{{ID: 9}}, nil
	})
	q := &memQueue{}
	s := New(lister, q, nil, 10*time.Millisecond, logger.Nop())

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return q.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	stop()
}
