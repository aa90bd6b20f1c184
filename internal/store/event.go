package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

// EventStore is the append-only durable record of path events. Rows are
// never updated or deleted; replay order is insertion order.
type EventStore struct {
	db *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, e *domain.PathEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	openedJSON, err := json.Marshal(e.OptionsOpened)
	if err != nil {
		return fmt.Errorf("marshal options_opened: %w", err)
	}
	closedJSON, err := json.Marshal(e.OptionsClosed)
	if err != nil {
		return fmt.Errorf("marshal options_closed: %w", err)
	}
	constraintsJSON, err := json.Marshal(e.ConstraintsCreated)
	if err != nil {
		return fmt.Errorf("marshal constraints_created: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO path_events (
			id, session_id, recorded_at, technique, step, decision,
			options_opened, options_closed,
			reversibility_cost, commitment_level, constraints_created
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.SessionID, e.Timestamp, e.Technique, e.Step, e.Decision,
		openedJSON, closedJSON,
		e.ReversibilityCost, e.CommitmentLevel, constraintsJSON,
	)
	return err
}

func (s *EventStore) ListBySession(ctx context.Context, sessionID string) ([]domain.PathEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, recorded_at, technique, step, decision,
			options_opened, options_closed,
			reversibility_cost, commitment_level, constraints_created
		FROM path_events
		WHERE session_id = $1
		ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *EventStore) scanEvents(rows pgx.Rows) ([]domain.PathEvent, error) {
	var events []domain.PathEvent
	for rows.Next() {
		var e domain.PathEvent
		var openedJSON, closedJSON, constraintsJSON []byte

		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.Technique, &e.Step, &e.Decision,
			&openedJSON, &closedJSON,
			&e.ReversibilityCost, &e.CommitmentLevel, &constraintsJSON,
		)
		if err != nil {
			return nil, err
		}

		if len(openedJSON) > 0 {
			_ = json.Unmarshal(openedJSON, &e.OptionsOpened)
		}
		if len(closedJSON) > 0 {
			_ = json.Unmarshal(closedJSON, &e.OptionsClosed)
		}
		if len(constraintsJSON) > 0 {
			_ = json.Unmarshal(constraintsJSON, &e.ConstraintsCreated)
		}

		events = append(events, e)
	}
	return events, rows.Err()
}
