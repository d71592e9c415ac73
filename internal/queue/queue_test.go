package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/mailing-service/internal/logger"
)

func TestInMemoryQueue_PublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue(logger.Nop())
	assert.Error(t, q.Publish(TopicCampaignDispatch, DispatchJob{CampaignID: 1}))
}

func TestInMemoryQueue_RetriesFailedJobs(t *testing.T) {
	q := NewInMemoryQueue(logger.Nop())
	q.backoff = time.Millisecond

	var calls atomic.Int32
	done := make(chan struct{})
	require.NoError(t, q.Subscribe("t", func(any) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	require.NoError(t, q.Publish("t", 1))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestStartDispatchSubscriber(t *testing.T) {
	q := NewInMemoryQueue(logger.Nop())
	got := make(chan int, 2)

	err := StartDispatchSubscriber(context.Background(), q, func(_ context.Context, id int) error {
		got <- id
		return nil
	}, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, q.Publish(TopicCampaignDispatch, DispatchJob{CampaignID: 42}))
	select {
	case id := <-got:
		assert.Equal(t, 42, id)
	case <-time.After(2 * time.Second):
		t.Fatal("job not delivered")
	}
}

func TestDecodeJob(t *testing.T) {
	job, err := DecodeJob([]byte(`{"campaign_id":7}`))
	require.NoError(t, err)
	assert.Equal(t, 7, job.CampaignID)

	job, err = DecodeJob(&DispatchJob{CampaignID: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, job.CampaignID)

	job, err = DecodeJob(9)
	require.NoError(t, err)
	assert.Equal(t, 9, job.CampaignID)

	_, err = DecodeJob([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeJob("7")
	assert.Error(t, err)
}
