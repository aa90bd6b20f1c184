// Package store implements PostgreSQL persistence for sessions, path
// events, and escape attempts. Stores return domain.ErrNotFound for
// missing rows so callers never see pgx sentinel errors.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConflict is returned when an insert violates a uniqueness
// constraint.
var ErrConflict = errors.New("conflict")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	problem        TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS path_events (
	id                  UUID PRIMARY KEY,
	session_id          TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	recorded_at         TIMESTAMPTZ NOT NULL,
	technique           TEXT NOT NULL,
	step                INT NOT NULL,
	decision            TEXT NOT NULL,
	options_opened      JSONB,
	options_closed      JSONB,
	reversibility_cost  DOUBLE PRECISION NOT NULL,
	commitment_level    DOUBLE PRECISION NOT NULL,
	constraints_created JSONB,
	seq                 BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_path_events_session ON path_events (session_id, seq);

CREATE TABLE IF NOT EXISTS escape_attempts (
	id                  BIGSERIAL PRIMARY KEY,
	session_id          TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	level               INT NOT NULL,
	protocol_name       TEXT NOT NULL,
	flexibility_before  DOUBLE PRECISION NOT NULL,
	flexibility_after   DOUBLE PRECISION NOT NULL,
	gain                DOUBLE PRECISION NOT NULL,
	constraints_removed JSONB,
	options_created     JSONB,
	succeeded           BOOLEAN NOT NULL,
	executed_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_escape_attempts_session ON escape_attempts (session_id, executed_at);
`

// Migrate applies the schema. Idempotent; run at startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
