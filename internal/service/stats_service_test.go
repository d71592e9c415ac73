package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/service"
)

func seedCampaign(store *memStore, ownerID int, status string, active bool, recipients int) int {
	msg := store.addMessage(ownerID)
	ids := make([]int, 0, recipients)
	for i := 0; i < recipients; i++ {
		ids = append(ids, store.addClient(ownerID, fmt.Sprintf("r%d@example.com", store.nextID)))
	}
	o := ownerID
	return store.addCampaign(model.Campaign{
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		Status: status, MessageID: msg, OwnerID: &o, IsActive: active,
	}, ids...)
}

func TestAggregate_MessagesSentCountsStartedAndCompletedOnly(t *testing.T) {
	store := newMemStore()
	seedCampaign(store, owner, model.StatusStarted, true, 3)
	seedCampaign(store, owner, model.StatusCreated, true, 5)

	svc := &service.StatsService{Campaigns: fakeCampaigns{store}, Attempts: fakeAttempts{store}}
	stats, err := svc.Aggregate(context.Background(), model.Scope{All: true})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalCampaigns)
	assert.Equal(t, 3, stats.MessagesSent)
	assert.Zero(t, stats.TotalAttempts)
}

func TestAggregate_CountsAttemptsByStatus(t *testing.T) {
	f := newFixture(map[string]error{"bad@example.com": assert.AnError})
	id := f.campaign(now.Add(-time.Hour), now.Add(time.Hour), model.StatusCreated, true,
		"bad@example.com", "good@example.com", "fine@example.com")
	_, err := f.d.DispatchByID(context.Background(), id)
	require.NoError(t, err)

	svc := &service.StatsService{Campaigns: fakeCampaigns{f.store}, Attempts: fakeAttempts{f.store}}
	stats, err := svc.Aggregate(context.Background(), model.Scope{All: true})
	require.NoError(t, err)

	assert.Equal(t, &model.Statistics{
		TotalCampaigns:     1,
		SuccessfulAttempts: 2,
		FailedAttempts:     1,
		TotalAttempts:      3,
		MessagesSent:       3,
	}, stats)
}

func TestAggregate_MemberScopeSeesOwnActiveCampaigns(t *testing.T) {
	store := newMemStore()
	seedCampaign(store, owner, model.StatusStarted, true, 2)
	seedCampaign(store, owner, model.StatusDisabled, false, 4)
	seedCampaign(store, owner+1, model.StatusCompleted, true, 7)

	svc := &service.StatsService{Campaigns: fakeCampaigns{store}, Attempts: fakeAttempts{store}}

	member, err := svc.Aggregate(context.Background(), model.Actor{UserID: owner, Role: model.RoleUser}.Scope())
	require.NoError(t, err)
	assert.Equal(t, 1, member.TotalCampaigns)
	assert.Equal(t, 2, member.MessagesSent)

	manager, err := svc.Aggregate(context.Background(), model.Actor{UserID: 1, Role: model.RoleManager}.Scope())
	require.NoError(t, err)
	assert.Equal(t, 3, manager.TotalCampaigns)
	assert.Equal(t, 9, manager.MessagesSent)
}

func TestAggregate_EmptyStore(t *testing.T) {
	store := newMemStore()
	svc := &service.StatsService{Campaigns: fakeCampaigns{store}, Attempts: fakeAttempts{store}}

	stats, err := svc.Aggregate(context.Background(), model.Scope{All: true})
	require.NoError(t, err)
	assert.Equal(t, &model.Statistics{}, stats)
}
