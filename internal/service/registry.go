package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// SessionRegistry maps session IDs to their managers. Capacity is
// bounded; when full, the oldest session by insertion order is evicted.
// Evicted sessions are recoverable from the event store on next access.
type SessionRegistry struct {
	cfg        Config
	classifier Classifier
	logger     *zap.Logger

	sessions domain.SessionStore
	events   domain.EventStore
	attempts domain.AttemptStore

	mu       sync.Mutex
	managers map[string]*ErgodicityManager
	order    []string
}

func NewSessionRegistry(
	cfg Config,
	classifier Classifier,
	sessions domain.SessionStore,
	events domain.EventStore,
	attempts domain.AttemptStore,
	logger *zap.Logger,
) *SessionRegistry {
	return &SessionRegistry{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger,
		sessions:   sessions,
		events:     events,
		attempts:   attempts,
		managers:   make(map[string]*ErgodicityManager),
	}
}

// GetOrCreate returns the manager for sessionID, creating and
// rehydrating it if absent. Rehydration replays persisted events in
// order; a missing or empty history starts a fresh session.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, sessionID string) (*ErgodicityManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mgr, ok := r.managers[sessionID]; ok {
		return mgr, nil
	}

	mgr := NewErgodicityManager(sessionID, r.classifier, r.cfg, r.events, r.attempts, r.logger)

	if r.events != nil {
		history, err := r.events.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			mgr.Replay(history)
			r.logger.Info("session rehydrated from event history",
				zap.String("session_id", sessionID),
				zap.Int("events", len(history)))
		}
	}

	if r.sessions != nil {
		if _, err := r.sessions.GetByID(ctx, sessionID); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if err := r.sessions.Create(ctx, &domain.Session{
				ID:        sessionID,
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				r.logger.Warn("failed to persist session record",
					zap.String("session_id", sessionID),
					zap.Error(err))
			}
		}
	}

	r.admit(sessionID, mgr)
	return mgr, nil
}

// Get returns an existing manager without creating one.
func (r *SessionRegistry) Get(sessionID string) (*ErgodicityManager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mgr, ok := r.managers[sessionID]
	return mgr, ok
}

// Remove drops a session's manager. In-memory state is discarded;
// persisted events survive for later rehydration.
func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(sessionID)
}

// Len reports the number of resident sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

// SessionIDs lists resident sessions in insertion order.
func (r *SessionRegistry) SessionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *SessionRegistry) admit(sessionID string, mgr *ErgodicityManager) {
	for len(r.managers) >= r.cfg.SessionCapacity && len(r.order) > 0 {
		oldest := r.order[0]
		r.drop(oldest)
		r.logger.Info("evicted oldest session at capacity",
			zap.String("session_id", oldest),
			zap.Int("capacity", r.cfg.SessionCapacity))
	}
	r.managers[sessionID] = mgr
	r.order = append(r.order, sessionID)
}

func (r *SessionRegistry) drop(sessionID string) {
	if _, ok := r.managers[sessionID]; !ok {
		return
	}
	delete(r.managers, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
