package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

// fixedRand returns the same value on every draw, pinning protocol
// gains and success rolls.
type fixedRand struct {
	v float64
}

func (r fixedRand) Float64() float64 { return r.v }

func testConfig() Config {
	cfg := DefaultConfig(42)
	cfg.Rand = fixedRand{v: 0.0}
	return cfg
}

func floatPtr(v float64) *float64 { return &v }

func harshImpact() domain.Impact {
	return domain.Impact{
		ReversibilityCost: floatPtr(0.9),
		CommitmentLevel:   floatPtr(0.9),
	}
}

func eventWith(sessionID, technique string, step int, cost, commitment float64) domain.PathEvent {
	return domain.PathEvent{
		ID:                uuid.New(),
		SessionID:         sessionID,
		Timestamp:         time.Now(),
		Technique:         technique,
		Step:              step,
		Decision:          fmt.Sprintf("decision %d via %s", step, technique),
		ReversibilityCost: cost,
		CommitmentLevel:   commitment,
	}
}

func memoryWith(events []domain.PathEvent, constraints []domain.Constraint, score float64) *domain.PathMemory {
	return &domain.PathMemory{
		SessionID:   "test-session",
		Events:      events,
		Constraints: constraints,
		Metrics: domain.FlexibilityMetrics{
			FlexibilityScore:   score,
			ReversibilityIndex: 1.0,
		},
	}
}

func constraintOf(t domain.ConstraintType, description string, strength float64) domain.Constraint {
	return domain.Constraint{
		ID:          uuid.New(),
		Type:        t,
		Description: description,
		Strength:    strength,
		CreatedAt:   time.Now(),
	}
}

// memEventStore implements domain.EventStore in memory for tests.
type memEventStore struct {
	events []domain.PathEvent
	fail   bool
}

func (s *memEventStore) Append(_ context.Context, e *domain.PathEvent) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *memEventStore) ListBySession(_ context.Context, sessionID string) ([]domain.PathEvent, error) {
	var out []domain.PathEvent
	for _, e := range s.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memAttemptStore implements domain.AttemptStore in memory for tests.
type memAttemptStore struct {
	attempts []domain.EscapeAttemptResult
}

func (s *memAttemptStore) Record(_ context.Context, a *domain.EscapeAttemptResult) error {
	s.attempts = append(s.attempts, *a)
	return nil
}

func (s *memAttemptStore) ListBySession(_ context.Context, sessionID string) ([]domain.EscapeAttemptResult, error) {
	var out []domain.EscapeAttemptResult
	for _, a := range s.attempts {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}
