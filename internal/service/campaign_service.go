// internal/service/campaign_service.go
package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/queue"
	"github.com/unclebandit/mailing-service/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ClientRepo   repository.ClientRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
	AttemptRepo  repository.AttemptRepositoryInterface
	Trigger      Firer
	Queue        queue.Queue // nil disables async sends
	Log          zerolog.Logger
}

// CampaignInput is the editable part of a campaign
type CampaignInput struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	MessageID int       `json:"message_id" validate:"required,gt=0"`
	ClientIDs []int     `json:"client_ids" validate:"dive,gt=0"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, actor model.Actor, in CampaignInput) (*model.Campaign, error) {
	clientIDs, err := s.checkReferences(ctx, &in)
	if err != nil {
		return nil, err
	}

	owner := actor.UserID
	c := &model.Campaign{
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    model.StatusCreated,
		MessageID: in.MessageID,
		OwnerID:   &owner,
		IsActive:  true,
		ClientIDs: clientIDs,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Log.Info().Int("campaign_id", c.ID).Int("owner_id", owner).Int("recipients", len(clientIDs)).Msg("campaign created")
	return c, nil
}

// UpdateCampaign edits the window, message and recipients. Status and
// is_active are never touched here.
func (s *CampaignService) UpdateCampaign(ctx context.Context, actor model.Actor, id int, in CampaignInput) (*model.Campaign, error) {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	clientIDs, err := s.checkReferences(ctx, &in)
	if err != nil {
		return nil, err
	}

	c.StartTime = in.StartTime
	c.EndTime = in.EndTime
	c.MessageID = in.MessageID
	c.ClientIDs = clientIDs
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, actor model.Actor, id int) error {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}
	return s.CampaignRepo.Delete(ctx, id)
}

// DisableCampaign is the operator kill switch: is_active=false, status=disabled.
func (s *CampaignService) DisableCampaign(ctx context.Context, actor model.Actor, id int) (*model.Campaign, error) {
	if !actor.IsManager() {
		return nil, appErrors.ErrForbidden
	}
	if err := s.CampaignRepo.Disable(ctx, id); err != nil {
		return nil, err
	}
	s.Log.Info().Int("campaign_id", id).Int("by", actor.UserID).Msg("campaign disabled")
	return s.CampaignRepo.GetByID(ctx, id)
}

// SendCampaign dispatches synchronously.
func (s *CampaignService) SendCampaign(ctx context.Context, actor model.Actor, id int) (*DispatchResult, error) {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.Trigger.Fire(ctx, id)
}

// EnqueueCampaign hands the dispatch to the queue worker.
func (s *CampaignService) EnqueueCampaign(ctx context.Context, actor model.Actor, id int) error {
	if s.Queue == nil {
		return appErrors.NewValidation("async", "no queue configured")
	}
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}
	return s.Queue.Publish(queue.TopicCampaignDispatch, queue.DispatchJob{CampaignID: id})
}

// ListCampaigns fetches campaigns with pagination. Members only see their
// active campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, actor model.Actor, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.CampaignFilter{
		Status: status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if !actor.IsManager() {
		filter.OwnerID = &actor.UserID
		filter.ActiveOnly = true
	}

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails returns the campaign with attempt counts by status.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, actor model.Actor, id int) (*CampaignDetails, error) {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.AttemptRepo.CountByStatus(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	stats := map[string]int{
		"total":                 0,
		model.AttemptSuccessful: counts[model.AttemptSuccessful],
		model.AttemptFailed:     counts[model.AttemptFailed],
		"recipients":            len(c.ClientIDs),
	}
	for _, n := range counts {
		stats["total"] += n
	}
	return &CampaignDetails{Campaign: c, Stats: stats}, nil
}

// ListAttempts returns attempts of one campaign, or of every campaign in the
// actor's reach when campaignID is nil.
func (s *CampaignService) ListAttempts(ctx context.Context, actor model.Actor, campaignID *int) ([]model.DeliveryAttempt, error) {
	if campaignID != nil {
		if _, err := s.authorized(ctx, actor, *campaignID); err != nil {
			return nil, err
		}
		return s.AttemptRepo.ListByCampaign(ctx, *campaignID)
	}

	filter := repository.CampaignFilter{}
	if !actor.IsManager() {
		filter.OwnerID = &actor.UserID
	}
	campaigns, _, err := s.CampaignRepo.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	return s.AttemptRepo.ListByCampaigns(ctx, ids, "")
}

func (s *CampaignService) authorized(ctx context.Context, actor model.Actor, id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(c) {
		return nil, appErrors.ErrForbidden
	}
	return c, nil
}

// checkReferences validates in and resolves the deduplicated client ids.
func (s *CampaignService) checkReferences(ctx context.Context, in *CampaignInput) ([]int, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.MessageRepo.GetByID(ctx, in.MessageID); err != nil {
		return nil, err
	}

	ids := dedupe(in.ClientIDs)
	found, err := s.ClientRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		present := make(map[int]bool, len(found))
		for _, id := range found {
			present[id] = true
		}
		for _, id := range ids {
			if !present[id] {
				return nil, appErrors.NewClientNotFound(id)
			}
		}
	}
	return ids, nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
