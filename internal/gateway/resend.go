package gateway

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

var _ Sender = (*Resend)(nil)

// Resend delivers through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	from   string
}

func NewResend(apiKey, from string) *Resend {
	return &Resend{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *Resend) Send(ctx context.Context, subject, body, to string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send to %s: %w", to, err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend send to %s: empty message id in response", to)
	}
	return nil
}
