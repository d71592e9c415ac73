// Package gateway delivers one message to one recipient address.
package gateway

import (
	"context"
	"time"

	"github.com/unclebandit/mailing-service/internal/metrics"
)

// Sender sends a single plain-text message. Transport and protocol errors are
// returned as errors with a non-empty description; implementations must not panic.
type Sender interface {
	Send(ctx context.Context, subject, body, to string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, subject, body, to string) error

func (f SenderFunc) Send(ctx context.Context, subject, body, to string) error {
	return f(ctx, subject, body, to)
}

// Instrumented records send latency per provider.
type Instrumented struct {
	Next     Sender
	Provider string
}

func (i *Instrumented) Send(ctx context.Context, subject, body, to string) error {
	start := time.Now()
	err := i.Next.Send(ctx, subject, body, to)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveGatewaySend(i.Provider, status, time.Since(start).Seconds())
	return err
}
