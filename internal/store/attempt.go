package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

// AttemptStore records escape protocol executions for audit.
type AttemptStore struct {
	db *pgxpool.Pool
}

func NewAttemptStore(db *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Record(ctx context.Context, a *domain.EscapeAttemptResult) error {
	if a.ExecutedAt.IsZero() {
		a.ExecutedAt = time.Now().UTC()
	}

	removedJSON, err := json.Marshal(a.ConstraintsRemoved)
	if err != nil {
		return fmt.Errorf("marshal constraints_removed: %w", err)
	}
	createdJSON, err := json.Marshal(a.OptionsCreated)
	if err != nil {
		return fmt.Errorf("marshal options_created: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO escape_attempts (
			session_id, level, protocol_name,
			flexibility_before, flexibility_after, gain,
			constraints_removed, options_created,
			succeeded, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.SessionID, int(a.Level), a.ProtocolName,
		a.FlexibilityBefore, a.FlexibilityAfter, a.Gain,
		removedJSON, createdJSON,
		a.Succeeded, a.ExecutedAt,
	)
	return err
}

func (s *AttemptStore) ListBySession(ctx context.Context, sessionID string) ([]domain.EscapeAttemptResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT session_id, level, protocol_name,
			flexibility_before, flexibility_after, gain,
			constraints_removed, options_created,
			succeeded, executed_at
		FROM escape_attempts
		WHERE session_id = $1
		ORDER BY executed_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.EscapeAttemptResult
	for rows.Next() {
		var a domain.EscapeAttemptResult
		var level int
		var removedJSON, createdJSON []byte

		err := rows.Scan(
			&a.SessionID, &level, &a.ProtocolName,
			&a.FlexibilityBefore, &a.FlexibilityAfter, &a.Gain,
			&removedJSON, &createdJSON,
			&a.Succeeded, &a.ExecutedAt,
		)
		if err != nil {
			return nil, err
		}
		a.Level = domain.ProtocolLevel(level)

		if len(removedJSON) > 0 {
			_ = json.Unmarshal(removedJSON, &a.ConstraintsRemoved)
		}
		if len(createdJSON) > 0 {
			_ = json.Unmarshal(createdJSON, &a.OptionsCreated)
		}

		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
