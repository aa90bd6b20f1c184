package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested record does not
// exist.
var ErrNotFound = errors.New("not found")

// Session is the persisted identity of one thinking session.
type Session struct {
	ID           string    `json:"id"`
	Problem      string    `json:"problem,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// SessionStore persists session identities.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, limit int) ([]Session, error)
}

// EventStore is the append-only durable record of path events. Events
// are never updated or deleted; ListBySession returns them in causal
// order.
type EventStore interface {
	Append(ctx context.Context, e *PathEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]PathEvent, error)
}

// AttemptStore records escape protocol executions for audit.
type AttemptStore interface {
	Record(ctx context.Context, a *EscapeAttemptResult) error
	ListBySession(ctx context.Context, sessionID string) ([]EscapeAttemptResult, error)
}

// Rand is the injectable randomness seam used by escape protocol
// execution, so tests can pin exact outcomes.
type Rand interface {
	Float64() float64
}
