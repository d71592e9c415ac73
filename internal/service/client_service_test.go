package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/service"
)

func TestClientService(t *testing.T) {
	store := newMemStore()
	svc := &service.ClientService{ClientRepo: fakeClients{store}}
	ctx := context.Background()

	c, err := svc.Create(ctx, member, service.ClientInput{Email: "ann@example.com", FullName: "Ann Lee"})
	require.NoError(t, err)
	assert.Equal(t, owner, *c.OwnerID)

	_, err = svc.Create(ctx, other, service.ClientInput{Email: "bob@example.com", FullName: "Bob"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, member)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ann@example.com", mine[0].Email)

	all, err := svc.List(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Update(ctx, other, c.ID, service.ClientInput{Email: "x@example.com", FullName: "X"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	updated, err := svc.Update(ctx, member, c.ID, service.ClientInput{Email: "ann@example.com", FullName: "Ann Lee-Park", Comment: "vip"})
	require.NoError(t, err)
	assert.Equal(t, "vip", updated.Comment)

	require.NoError(t, svc.Delete(ctx, manager, c.ID))
	_, err = svc.Get(ctx, member, c.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestClientService_CampaignRecipientsAreEditableByCampaignOwner(t *testing.T) {
	store := newMemStore()
	svc := &service.ClientService{ClientRepo: fakeClients{store}}
	ctx := context.Background()

	// created by someone else, then added to member's campaign
	clientID := store.addClient(owner+5, "carol@example.com")
	o := owner
	store.addCampaign(model.Campaign{Status: model.StatusCreated, OwnerID: &o, IsActive: true}, clientID)

	visible, err := svc.List(ctx, member)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, clientID, visible[0].ID)

	updated, err := svc.Update(ctx, member, clientID, service.ClientInput{Email: "carol@example.com", FullName: "Carol Diaz"})
	require.NoError(t, err)
	assert.Equal(t, "Carol Diaz", updated.FullName)

	_, err = svc.Get(ctx, other, clientID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other, clientID), appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, member, clientID))
}

func TestClientService_Validation(t *testing.T) {
	svc := &service.ClientService{ClientRepo: fakeClients{newMemStore()}}

	tests := []struct {
		in     service.ClientInput
		field  string
		reason string
	}{
		{service.ClientInput{FullName: "No Email"}, "email", "is required"},
		{service.ClientInput{Email: "not-an-address", FullName: "Bad"}, "email", "must be a valid email address"},
		{service.ClientInput{Email: "ok@example.com"}, "full_name", "is required"},
	}
	for _, tt := range tests {
		_, err := svc.Create(context.Background(), member, tt.in)
		var verr *appErrors.ErrValidation
		require.True(t, errors.As(err, &verr), "%+v", tt.in)
		assert.Equal(t, tt.field, verr.Field)
		assert.Equal(t, tt.reason, verr.Reason)
	}
}

func TestClientService_DuplicateEmail(t *testing.T) {
	svc := &service.ClientService{ClientRepo: fakeClients{newMemStore()}}
	in := service.ClientInput{Email: "dup@example.com", FullName: "Dup"}

	_, err := svc.Create(context.Background(), member, in)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other, in)
	assert.True(t, appErrors.IsValidation(err))
}

func TestMessageService(t *testing.T) {
	store := newMemStore()
	svc := &service.MessageService{MessageRepo: fakeMessages{store}}
	ctx := context.Background()

	_, err := svc.Create(ctx, member, service.MessageInput{Subject: "Hi"})
	assert.True(t, appErrors.IsValidation(err))

	m, err := svc.Create(ctx, member, service.MessageInput{Subject: "Hi", Body: "Hello there"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, m.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	m, err = svc.Update(ctx, member, m.ID, service.MessageInput{Subject: "Hi again", Body: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi again", m.Subject)

	visible, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, visible)

	assert.ErrorIs(t, svc.Delete(ctx, other, m.ID), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, member, m.ID))
}
