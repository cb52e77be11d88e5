package database

import (
	"context"
	"fmt"
)

// SessionsTable stores gambling sessions.
const SessionsTable = "gambling_sessions"

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS gambling_sessions (
			id BIGSERIAL PRIMARY KEY,
			session_date DATE NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			state CHAR(2) NOT NULL,
			game_type TEXT NOT NULL,
			buy_in DECIMAL(12, 2) NOT NULL CHECK (buy_in >= 0),
			cash_out DECIMAL(12, 2) NOT NULL CHECK (cash_out >= 0),
			tax_withheld BOOLEAN NOT NULL DEFAULT FALSE,
			withheld_amount DECIMAL(12, 2) NOT NULL DEFAULT 0 CHECK (withheld_amount >= 0),
			documentation_note TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gambling_sessions_date ON gambling_sessions(session_date)`,
		`CREATE INDEX IF NOT EXISTS idx_gambling_sessions_state ON gambling_sessions(state)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
