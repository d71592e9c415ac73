package service

import (
	"context"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/repository"
)

type MessageInput struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

type MessageService struct {
	MessageRepo repository.MessageRepositoryInterface
}

func (s *MessageService) Create(ctx context.Context, actor model.Actor, in MessageInput) (*model.Message, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	owner := actor.UserID
	m := &model.Message{Subject: in.Subject, Body: in.Body, OwnerID: &owner}
	if err := s.MessageRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageService) Get(ctx context.Context, actor model.Actor, id int) (*model.Message, error) {
	m, err := s.MessageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, m.OwnerID) {
		return nil, appErrors.ErrForbidden
	}
	return m, nil
}

func (s *MessageService) Update(ctx context.Context, actor model.Actor, id int, in MessageInput) (*model.Message, error) {
	m, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	m.Subject, m.Body = in.Subject, in.Body
	if err := s.MessageRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the message. Campaigns referencing it go with it.
func (s *MessageService) Delete(ctx context.Context, actor model.Actor, id int) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.MessageRepo.Delete(ctx, id)
}

func (s *MessageService) List(ctx context.Context, actor model.Actor) ([]model.Message, error) {
	if actor.IsManager() {
		return s.MessageRepo.ListAll(ctx)
	}
	return s.MessageRepo.ListVisibleTo(ctx, actor.UserID)
}
