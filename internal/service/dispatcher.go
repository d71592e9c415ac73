package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/gateway"
	"github.com/unclebandit/mailing-service/internal/metrics"
	"github.com/unclebandit/mailing-service/internal/model"
)

// CampaignStore is what the dispatcher needs from campaign persistence
type CampaignStore interface {
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	// UpdateStatus returns appErrors.ErrCampaignDisabled instead of moving a
	// disabled campaign.
	UpdateStatus(ctx context.Context, campaignID int, status string) error
}

// RecipientSource resolves the live recipient set of a campaign
type RecipientSource interface {
	ListForCampaign(ctx context.Context, campaignID int) ([]model.Client, error)
}

// MessageSource loads the message a campaign sends
type MessageSource interface {
	GetByID(ctx context.Context, id int) (*model.Message, error)
}

// AttemptRecorder appends delivery attempts
type AttemptRecorder interface {
	Record(ctx context.Context, a *model.DeliveryAttempt) error
}

// Clock supplies the invocation time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// RecipientOutcome is the result of one recipient's send.
type RecipientOutcome struct {
	ClientID int                   `json:"client_id"`
	Email    string                `json:"email"`
	Attempt  model.DeliveryAttempt `json:"attempt"`
}

// DispatchResult describes one dispatch invocation.
type DispatchResult struct {
	DispatchID     string             `json:"dispatch_id"`
	CampaignID     int                `json:"campaign_id"`
	Dispatched     bool               `json:"dispatched"`
	PreviousStatus string             `json:"previous_status"`
	Status         string             `json:"status"`
	Outcomes       []RecipientOutcome `json:"outcomes"`
}

func (r *DispatchResult) Successful() int { return r.count(model.AttemptSuccessful) }

func (r *DispatchResult) Failed() int { return r.count(model.AttemptFailed) }

func (r *DispatchResult) count(status string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Attempt.Status == status {
			n++
		}
	}
	return n
}

// Dispatcher runs dispatch invocations.
//
// Callers must guarantee at most one concurrent invocation per campaign; the
// dispatcher itself takes no locks (see Trigger). Invocations for different
// campaigns share no mutable state.
type Dispatcher struct {
	Campaigns  CampaignStore
	Recipients RecipientSource
	Messages   MessageSource
	Attempts   AttemptRecorder
	Gateway    gateway.Sender
	Clock      Clock

	// Pacer, when set, spaces out gateway calls. Its wait is not part of
	// SendTimeout.
	Pacer gateway.Pacer

	// SendTimeout bounds each gateway call; zero means no bound.
	SendTimeout time.Duration
	Log         zerolog.Logger
}

// DispatchByID loads the campaign and dispatches it. Unknown ids return
// a NotFound error with no side effect.
func (d *Dispatcher) DispatchByID(ctx context.Context, campaignID int) (*DispatchResult, error) {
	c, err := d.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, c)
}

// Dispatch gates the campaign, sends to every current recipient, records one
// attempt per recipient and persists the resulting status. Dispatched is
// false when the campaign was gated out. A store failure aborts the
// invocation and leaves the status unpersisted.
//
// Once past the gate the loop runs to completion even if ctx is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, c *model.Campaign) (*DispatchResult, error) {
	ctx = context.WithoutCancel(ctx)
	now := d.clock().Now()

	res := &DispatchResult{
		DispatchID:     uuid.NewString(),
		CampaignID:     c.ID,
		PreviousStatus: c.Status,
		Outcomes:       []RecipientOutcome{},
	}
	log := d.Log.With().Str("dispatch_id", res.DispatchID).Int("campaign_id", c.ID).Logger()

	dispatchable, gated := Gate(c, now)
	if !dispatchable {
		status, err := d.persistStatus(ctx, c.ID, gated)
		if err != nil {
			metrics.IncDispatch("error")
			return nil, err
		}
		c.Status = status
		res.Status = status
		metrics.IncDispatch("not_dispatchable")
		log.Info().Str("status", status).Bool("is_active", c.IsActive).Time("end_time", c.EndTime).Msg("campaign not dispatchable")
		return res, nil
	}

	msg, err := d.Messages.GetByID(ctx, c.MessageID)
	if err != nil {
		metrics.IncDispatch("error")
		return nil, err
	}
	recipients, err := d.Recipients.ListForCampaign(ctx, c.ID)
	if err != nil {
		metrics.IncDispatch("error")
		return nil, appErrors.NewPersistence("list recipients", err)
	}

	for _, client := range recipients {
		attempt := model.DeliveryAttempt{
			CampaignID:     c.ID,
			AttemptTime:    now,
			Status:         model.AttemptSuccessful,
			ServerResponse: model.ResponseOK,
		}
		if sendErr := d.send(ctx, msg, client.Email); sendErr != nil {
			attempt.Status = model.AttemptFailed
			attempt.ServerResponse = describeFailure(sendErr)
			log.Warn().Str("to", client.Email).Str("response", attempt.ServerResponse).Msg("delivery failed")
		}

		if err := d.Attempts.Record(ctx, &attempt); err != nil {
			metrics.IncDispatch("error")
			log.Error().Err(err).Str("to", client.Email).Msg("failed to record delivery attempt")
			return nil, appErrors.NewPersistence("record delivery attempt", err)
		}
		metrics.IncAttempt(attempt.Status)
		res.Outcomes = append(res.Outcomes, RecipientOutcome{ClientID: client.ID, Email: client.Email, Attempt: attempt})
	}

	next, err := d.persistStatus(ctx, c.ID, AfterLoop(c.Status, c.EndTime, now))
	if err != nil {
		metrics.IncDispatch("error")
		return nil, err
	}
	if next == model.StatusDisabled {
		c.IsActive = false
		log.Info().Msg("campaign disabled during dispatch")
	}
	c.Status = next
	res.Status = next
	res.Dispatched = true
	metrics.IncDispatch("dispatched")

	log.Info().
		Int("recipients", len(recipients)).
		Int("successful", res.Successful()).
		Int("failed", res.Failed()).
		Str("status", next).
		Msg("campaign dispatched")
	return res, nil
}

// send calls the gateway under the per-call timeout. A gateway that ignores
// its context is abandoned when the timeout fires, and a panic becomes an error.
func (d *Dispatcher) send(ctx context.Context, msg *model.Message, to string) error {
	if d.Pacer != nil {
		if err := d.Pacer.Wait(ctx); err != nil {
			return fmt.Errorf("throttle wait for %s: %w", to, err)
		}
	}
	if d.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.SendTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("gateway panic: %v", r)
			}
		}()
		done <- d.Gateway.Send(ctx, msg.Subject, msg.Body, to)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send to %s timed out: %w", to, ctx.Err())
	}
}

// persistStatus writes status and returns the status the campaign ends up
// with. A disable that landed while the loop ran wins over the transition.
func (d *Dispatcher) persistStatus(ctx context.Context, campaignID int, status string) (string, error) {
	err := d.Campaigns.UpdateStatus(ctx, campaignID, status)
	switch {
	case err == nil:
		return status, nil
	case errors.Is(err, appErrors.ErrCampaignDisabled):
		return model.StatusDisabled, nil
	default:
		return "", appErrors.NewPersistence("update campaign status", err)
	}
}

func (d *Dispatcher) clock() Clock {
	if d.Clock == nil {
		return SystemClock
	}
	return d.Clock
}

func describeFailure(err error) string {
	desc := strings.TrimSpace(err.Error())
	if desc == "" {
		return "delivery failed"
	}
	return desc
}
