//cmd/seeder/main.go
package main

import (
	"os"

	"github.com/unclebandit/mailing-service/internal/config"
	"github.com/unclebandit/mailing-service/internal/db"
	"github.com/unclebandit/mailing-service/internal/logger"
)

var seedFiles = []string{
	"seed/clients.sql",
	"seed/messages.sql",
	"seed/campaigns.sql",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.AppConfig.Env)

	conn, err := db.Open(cfg.DataBaseConfig.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}

		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed successfully")
}
