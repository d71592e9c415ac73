package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/app"
	"github.com/unclebandit/mailing-service/internal/config"
	"github.com/unclebandit/mailing-service/internal/logger"
	"github.com/unclebandit/mailing-service/internal/queue"
)

// The worker consumes campaign dispatch jobs from RabbitMQ.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.AppConfig.Env).With().Str("process", "worker").Logger()

	if cfg.QueueConfig.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	q, err := queue.DialAMQP(cfg.QueueConfig.AMQPURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer q.Close()
	closed := q.NotifyClose()

	if err := run(ctx, q, a.Worker.Process, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("worker stopping")
	case reason := <-closed:
		log.Error().Interface("reason", reason).Msg("rabbitmq connection closed")
	}
}

func run(ctx context.Context, q queue.Queue, process func(context.Context, int) error, log zerolog.Logger) error {
	if err := queue.StartDispatchSubscriber(ctx, q, process, log); err != nil {
		return err
	}
	log.Info().Msg("worker running, waiting for jobs")
	return nil
}
