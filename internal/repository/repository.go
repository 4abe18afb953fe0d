package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by every Find* method when no row matches.
// Services translate it into the appropriate domain error code.
var ErrNotFound = errors.New("record not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS account_users (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES account_users(id),
		account_number  VARCHAR(10) NOT NULL UNIQUE,
		status          VARCHAR(16) NOT NULL,
		balance         BIGINT NOT NULL CHECK (balance >= 0),
		registered_at   TIMESTAMPTZ NOT NULL,
		unregistered_at TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                      BIGSERIAL PRIMARY KEY,
		transaction_type        VARCHAR(8) NOT NULL,
		transaction_result      VARCHAR(8) NOT NULL,
		account_id              BIGINT NOT NULL REFERENCES accounts(id),
		amount                  BIGINT NOT NULL,
		balance_snapshot        BIGINT NOT NULL,
		transaction_id          VARCHAR(32) NOT NULL UNIQUE,
		original_transaction_id VARCHAR(32),
		transacted_at           TIMESTAMPTZ NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_original
		ON transactions (original_transaction_id)
		WHERE original_transaction_id IS NOT NULL`,
}

// Migrate creates the schema when it does not exist yet.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
