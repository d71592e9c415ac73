package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig
	DataBaseConfig
	QueueConfig
	EmailConfig
	DispatchConfig
	SchedulerConfig
}

type AppConfig struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Addr string `envconfig:"APP_ADDR" default:":8080"`
}

type DataBaseConfig struct {
	URL      string `envconfig:"DATABASE_URL"` // takes precedence over the DB_* parts
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"mailing"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

type QueueConfig struct {
	AMQPURL   string `envconfig:"AMQP_URL"`   // empty uses the in-process queue
	RedisAddr string `envconfig:"REDIS_ADDR"` // empty falls back to an in-process lock
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
}

type EmailConfig struct {
	Provider     string `envconfig:"EMAIL_PROVIDER" default:"log"` // smtp | resend | log
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	From         string `envconfig:"SMTP_FROM" default:"no-reply@localhost"`
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
}

type DispatchConfig struct {
	SendTimeout   time.Duration `envconfig:"DISPATCH_SEND_TIMEOUT" default:"30s"`
	LockTTL       time.Duration `envconfig:"DISPATCH_LOCK_TTL" default:"10m"`
	RatePerSecond float64       `envconfig:"GATEWAY_RATE_PER_SECOND" default:"0"` // 0 disables throttling
}

type SchedulerConfig struct {
	Enabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
	Interval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1m"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.EmailConfig.Provider) {
	case "smtp", "log":
	case "resend":
		if c.EmailConfig.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailConfig.Provider)
	}
	if c.DispatchConfig.SendTimeout <= 0 {
		return fmt.Errorf("DISPATCH_SEND_TIMEOUT must be positive")
	}
	return nil
}

// DSN returns the postgres connection string.
func (d DataBaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}
