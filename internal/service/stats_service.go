package service

import (
	"context"

	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/repository"
)

type CampaignLister interface {
	ListCampaigns(ctx context.Context, f repository.CampaignFilter) ([]*model.Campaign, int, error)
	CountRecipients(ctx context.Context, campaignIDs []int) (map[int]int, error)
}

type AttemptCounter interface {
	CountByStatus(ctx context.Context, campaignIDs []int) (map[string]int, error)
}

// StatsService derives statistics from persisted campaigns and attempts.
// Nothing is cached; every call rescans the store.
type StatsService struct {
	Campaigns CampaignLister
	Attempts  AttemptCounter
}

// Aggregate computes statistics for scope. A member scope only covers the
// member's active campaigns. MessagesSent counts the current recipients of
// started and completed campaigns, not historical attempts.
func (s *StatsService) Aggregate(ctx context.Context, scope model.Scope) (*model.Statistics, error) {
	filter := repository.CampaignFilter{}
	if !scope.All {
		filter.OwnerID = &scope.UserID
		filter.ActiveOnly = true
	}

	campaigns, _, err := s.Campaigns.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	counts, err := s.Attempts.CountByStatus(ctx, ids)
	if err != nil {
		return nil, err
	}
	recipients, err := s.Campaigns.CountRecipients(ctx, ids)
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		TotalCampaigns:     len(campaigns),
		SuccessfulAttempts: counts[model.AttemptSuccessful],
		FailedAttempts:     counts[model.AttemptFailed],
	}
	for _, n := range counts {
		stats.TotalAttempts += n
	}
	for _, c := range campaigns {
		if c.Status == model.StatusStarted || c.Status == model.StatusCompleted {
			stats.MessagesSent += recipients[c.ID]
		}
	}
	return stats, nil
}
