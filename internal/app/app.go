// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/config"
	"github.com/unclebandit/mailing-service/internal/db"
	"github.com/unclebandit/mailing-service/internal/gateway"
	"github.com/unclebandit/mailing-service/internal/lock"
	"github.com/unclebandit/mailing-service/internal/queue"
	"github.com/unclebandit/mailing-service/internal/repository"
	"github.com/unclebandit/mailing-service/internal/service"
)

type App struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *sql.DB
	Redis  *redis.Client // nil when REDIS_ADDR is unset
	Queue  queue.Queue

	CampaignRepo *repository.CampaignRepository
	ClientRepo   *repository.ClientRepository
	MessageRepo  *repository.MessageRepository
	AttemptRepo  *repository.AttemptRepository

	Dispatcher *service.Dispatcher
	Trigger    *service.Trigger
	Worker     *service.Worker

	Campaigns *service.CampaignService
	Clients   *service.ClientService
	Messages  *service.MessageService
	Stats     *service.StatsService

	closers []func() error
}

// New connects to postgres (and redis when configured), applies the schema
// and builds every service. The queue is attached separately with UseQueue.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	conn, err := db.Open(cfg.DataBaseConfig.DSN())
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: conn}
	a.closers = append(a.closers, conn.Close)

	if err := db.Migrate(conn); err != nil {
		a.Close()
		return nil, err
	}

	var locker lock.Locker
	if cfg.QueueConfig.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.QueueConfig.RedisAddr, DB: cfg.QueueConfig.RedisDB})
		a.closers = append(a.closers, a.Redis.Close)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		locker = lock.NewRedis(a.Redis, cfg.DispatchConfig.LockTTL, log)
		log.Info().Str("addr", cfg.QueueConfig.RedisAddr).Msg("using redis dispatch lock")
	} else {
		locker = lock.NewMemory(cfg.DispatchConfig.LockTTL)
	}

	a.CampaignRepo = &repository.CampaignRepository{DB: conn}
	a.ClientRepo = &repository.ClientRepository{DB: conn}
	a.MessageRepo = &repository.MessageRepository{DB: conn}
	a.AttemptRepo = &repository.AttemptRepository{DB: conn}

	a.Dispatcher = &service.Dispatcher{
		Campaigns:   a.CampaignRepo,
		Recipients:  a.ClientRepo,
		Messages:    a.MessageRepo,
		Attempts:    a.AttemptRepo,
		Gateway:     gateway.New(cfg.EmailConfig, log),
		Pacer:       gateway.NewPacer(cfg.DispatchConfig.RatePerSecond),
		Clock:       service.SystemClock,
		SendTimeout: cfg.DispatchConfig.SendTimeout,
		Log:         log.With().Str("component", "dispatcher").Logger(),
	}
	a.Trigger = &service.Trigger{Dispatcher: a.Dispatcher, Locker: locker}
	a.Worker = service.NewWorker(a.Trigger, log.With().Str("component", "worker").Logger())

	a.Campaigns = &service.CampaignService{
		CampaignRepo: a.CampaignRepo,
		ClientRepo:   a.ClientRepo,
		MessageRepo:  a.MessageRepo,
		AttemptRepo:  a.AttemptRepo,
		Trigger:      a.Trigger,
		Log:          log,
	}
	a.Clients = &service.ClientService{ClientRepo: a.ClientRepo}
	a.Messages = &service.MessageService{MessageRepo: a.MessageRepo}
	a.Stats = &service.StatsService{Campaigns: a.CampaignRepo, Attempts: a.AttemptRepo}
	return a, nil
}

// UseQueue connects the dispatch queue: RabbitMQ when AMQP_URL is set,
// otherwise an in-process queue whose only consumer is this process.
func (a *App) UseQueue() (queue.Queue, error) {
	if a.Config.QueueConfig.AMQPURL == "" {
		a.Queue = queue.NewInMemoryQueue(a.Log.With().Str("component", "queue").Logger())
	} else {
		q, err := queue.DialAMQP(a.Config.QueueConfig.AMQPURL, a.Log.With().Str("component", "queue").Logger())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, q.Close)
		a.Queue = q
	}
	a.Campaigns.Queue = a.Queue
	return a.Queue, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
