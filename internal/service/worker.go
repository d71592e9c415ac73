package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
)

// Firer dispatches a campaign by id
type Firer interface {
	Fire(ctx context.Context, campaignID int) (*DispatchResult, error)
}

// Worker processes queued dispatch jobs
type Worker struct {
	Trigger Firer
	Log     zerolog.Logger
}

// Constructor
func NewWorker(trigger Firer, log zerolog.Logger) *Worker {
	return &Worker{
		Trigger: trigger,
		Log:     log,
	}
}

// Process dispatches one queued campaign. Only store failures are returned,
// since those are the only outcomes a redelivery can change.
func (w *Worker) Process(ctx context.Context, campaignID int) error {
	res, err := w.Trigger.Fire(ctx, campaignID)
	switch {
	case err == nil:
		w.Log.Info().Int("campaign_id", campaignID).Bool("dispatched", res.Dispatched).Str("status", res.Status).Msg("job processed")
		return nil
	case appErrors.IsNotFound(err):
		w.Log.Warn().Int("campaign_id", campaignID).Msg("campaign not found, dropping job")
		return nil
	case errors.Is(err, appErrors.ErrDispatchInProgress):
		w.Log.Info().Int("campaign_id", campaignID).Msg("dispatch already running, dropping job")
		return nil
	default:
		w.Log.Error().Err(err).Int("campaign_id", campaignID).Msg("dispatch failed")
		return err
	}
}
