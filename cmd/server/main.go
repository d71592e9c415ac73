// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/mailing-service/internal/app"
	"github.com/unclebandit/mailing-service/internal/config"
	"github.com/unclebandit/mailing-service/internal/controller"
	"github.com/unclebandit/mailing-service/internal/handler"
	"github.com/unclebandit/mailing-service/internal/logger"
	"github.com/unclebandit/mailing-service/internal/queue"
	"github.com/unclebandit/mailing-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.AppConfig.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	q, err := a.UseQueue()
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	// With RabbitMQ the dedicated worker binary consumes; in-process jobs are handled here.
	if cfg.QueueConfig.AMQPURL == "" {
		if err := queue.StartDispatchSubscriber(ctx, q, a.Worker.Process, log); err != nil {
			log.Fatal().Err(err).Msg("failed to start dispatch subscriber")
		}
	}

	if cfg.SchedulerConfig.Enabled {
		stopScheduler := scheduler.New(a.CampaignRepo, q, nil, cfg.SchedulerConfig.Interval, log).Start(ctx)
		defer stopScheduler()
	}

	router := controller.NewRouter(controller.Controllers{
		Campaigns: &controller.CampaignController{CampaignService: a.Campaigns, Log: log},
		Clients:   &controller.ClientController{ClientService: a.Clients, Log: log},
		Messages:  &controller.MessageController{MessageService: a.Messages, Log: log},
		Reports:   &handler.CampaignHandler{Stats: a.Stats, Campaigns: a.Campaigns, Log: log},
	})

	srv := &http.Server{
		Addr:              cfg.AppConfig.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
