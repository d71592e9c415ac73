package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/lock"
	"github.com/unclebandit/mailing-service/internal/logger"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/service"
)

func TestTrigger_RejectsConcurrentDispatch(t *testing.T) {
	f := newFixture(nil)
	id := f.campaign(now.Add(-time.Hour), now.Add(time.Hour), model.StatusCreated, true, "a@example.com")
	locker := lock.NewMemory(time.Minute)
	trigger := &service.Trigger{Dispatcher: f.d, Locker: locker}

	release, err := locker.Acquire(context.Background(), id)
	require.NoError(t, err)

	_, err = trigger.Fire(context.Background(), id)
	assert.ErrorIs(t, err, appErrors.ErrDispatchInProgress)
	assert.Empty(t, f.store.attemptsFor(id))

	release()
	res, err := trigger.Fire(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Dispatched)

	// the lock is released after each invocation
	_, err = trigger.Fire(context.Background(), id)
	assert.NoError(t, err)
}

type stubFirer struct {
	err   error
	calls []int
}

func (s *stubFirer) Fire(_ context.Context, id int) (*service.DispatchResult, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	return &service.DispatchResult{CampaignID: id, Dispatched: true, Status: model.StatusStarted}, nil
}

func TestWorker_Process(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"dispatched", nil, false},
		{"unknown campaign is dropped", appErrors.NewCampaignNotFound(3), false},
		{"locked campaign is dropped", appErrors.ErrDispatchInProgress, false},
		{"store failure is retried", appErrors.NewPersistence("record delivery attempt", errors.New("conn reset")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firer := &stubFirer{err: tt.err}
			w := service.NewWorker(firer, logger.Nop())

			err := w.Process(context.Background(), 3)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []int{3}, firer.calls)
		})
	}
}
