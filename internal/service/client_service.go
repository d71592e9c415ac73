package service

import (
	"context"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/repository"
)

type ClientInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Comment  string `json:"comment"`
}

// ClientService manages the address book. Members see and edit the clients
// they created and the recipients of their own campaigns.
type ClientService struct {
	ClientRepo repository.ClientRepositoryInterface
}

func (s *ClientService) Create(ctx context.Context, actor model.Actor, in ClientInput) (*model.Client, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	owner := actor.UserID
	c := &model.Client{Email: in.Email, FullName: in.FullName, Comment: in.Comment, OwnerID: &owner}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, actor model.Actor, id int) (*model.Client, error) {
	c, err := s.ClientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if canTouch(actor, c.OwnerID) {
		return c, nil
	}
	linked, err := s.ClientRepo.VisibleTo(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, appErrors.ErrForbidden
	}
	return c, nil
}

func (s *ClientService) Update(ctx context.Context, actor model.Actor, id int, in ClientInput) (*model.Client, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	c.Email, c.FullName, c.Comment = in.Email, in.FullName, in.Comment
	if err := s.ClientRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Delete(ctx context.Context, actor model.Actor, id int) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.ClientRepo.Delete(ctx, id)
}

func (s *ClientService) List(ctx context.Context, actor model.Actor) ([]model.Client, error) {
	if actor.IsManager() {
		return s.ClientRepo.ListAll(ctx)
	}
	return s.ClientRepo.ListVisibleTo(ctx, actor.UserID)
}

// canTouch is the ownership rule shared by clients and messages.
func canTouch(actor model.Actor, owner *int) bool {
	return actor.IsManager() || (owner != nil && *owner == actor.UserID)
}
