package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS clients (
    id         SERIAL PRIMARY KEY,
    email      VARCHAR(254) NOT NULL UNIQUE,
    full_name  VARCHAR(255) NOT NULL,
    comment    TEXT NOT NULL DEFAULT '',
    owner_id   INTEGER
);

CREATE TABLE IF NOT EXISTS messages (
    id         SERIAL PRIMARY KEY,
    subject    VARCHAR(255) NOT NULL,
    body       TEXT NOT NULL,
    owner_id   INTEGER
);

CREATE TABLE IF NOT EXISTS campaigns (
    id          SERIAL PRIMARY KEY,
    start_time  TIMESTAMPTZ NOT NULL,
    end_time    TIMESTAMPTZ NOT NULL,
    status      VARCHAR(10) NOT NULL DEFAULT 'created',
    message_id  INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    owner_id    INTEGER,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ,
    CONSTRAINT campaigns_window CHECK (end_time >= start_time),
    CONSTRAINT campaigns_status CHECK (status IN ('created', 'started', 'completed', 'disabled'))
);

CREATE TABLE IF NOT EXISTS campaign_clients (
    campaign_id INTEGER NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    client_id   INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    PRIMARY KEY (campaign_id, client_id)
);

CREATE TABLE IF NOT EXISTS delivery_attempts (
    id              SERIAL PRIMARY KEY,
    campaign_id     INTEGER NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    attempt_time    TIMESTAMPTZ NOT NULL,
    status          VARCHAR(10) NOT NULL CHECK (status IN ('successful', 'failed')),
    server_response TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_owner_active ON campaigns (owner_id, is_active);
CREATE INDEX IF NOT EXISTS idx_delivery_attempts_campaign ON delivery_attempts (campaign_id, status);
`

// Migrate creates the tables when they do not exist yet.
func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
