package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TopicCampaignDispatch carries DispatchJob payloads.
const TopicCampaignDispatch = "campaign_dispatch"

// DispatchJob asks a worker to run one dispatch invocation.
type DispatchJob struct {
	CampaignID int `json:"campaign_id"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(payload any) error
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		log:        log,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: q.maxRetries,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		q.log.Warn().Err(err).Int("attempt", job.RetryCount).Int("max_retries", job.MaxRetries).Interface("payload", job.Payload).Msg("job failed")

		if job.RetryCount > job.MaxRetries {
			q.log.Error().Interface("payload", job.Payload).Msg("job permanently failed")
			return // No requeue
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// DecodeJob accepts the payload shapes both queue implementations deliver.
func DecodeJob(payload any) (DispatchJob, error) {
	switch p := payload.(type) {
	case DispatchJob:
		return p, nil
	case *DispatchJob:
		if p == nil {
			return DispatchJob{}, fmt.Errorf("nil dispatch job")
		}
		return *p, nil
	case int:
		return DispatchJob{CampaignID: p}, nil
	case []byte:
		var job DispatchJob
		if err := json.Unmarshal(p, &job); err != nil {
			return DispatchJob{}, fmt.Errorf("decode dispatch job: %w", err)
		}
		return job, nil
	default:
		return DispatchJob{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}

// StartDispatchSubscriber feeds campaign dispatch jobs to process. Undecodable
// payloads are dropped; errors from process are retried by the queue.
func StartDispatchSubscriber(ctx context.Context, q Queue, process func(ctx context.Context, campaignID int) error, log zerolog.Logger) error {
	return q.Subscribe(TopicCampaignDispatch, func(payload any) error {
		job, err := DecodeJob(payload)
		if err != nil {
			log.Warn().Err(err).Msg("dropping invalid dispatch job")
			return nil
		}
		return process(ctx, job.CampaignID)
	})
}
