package service

import (
	"sync"
	"time"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// BarrierMonitor continuously evaluates path memory against the
// absorbing barriers. It is read-only over PathMemory; its only state is
// a bounded, session-keyed history of sensor readings kept for audit.
type BarrierMonitor struct {
	cfg     Config
	logger  *zap.Logger
	sensors []sensor

	mu      sync.Mutex
	history map[string][]domain.SensorReading
}

func NewBarrierMonitor(cfg Config, logger *zap.Logger) *BarrierMonitor {
	return &BarrierMonitor{
		cfg:    cfg,
		logger: logger,
		sensors: []sensor{
			reversibilitySensor,
			commitmentSensor,
			constraintSensor,
			optionSensor,
		},
		history: make(map[string][]domain.SensorReading),
	}
}

// Evaluate runs every sensor over the current snapshot and aggregates
// the readings into an early warning state. A failing sensor is skipped;
// it never aborts the evaluation.
func (m *BarrierMonitor) Evaluate(mem *domain.PathMemory, sctx *domain.SessionContext) domain.EarlyWarningState {
	state := domain.EarlyWarningState{
		SessionID:         mem.SessionID,
		RecommendedAction: domain.ActionContinue,
		EvaluatedAt:       time.Now(),
	}

	worst := domain.WarningLevel("")
	for _, s := range m.sensors {
		reading, ok := m.runSensor(s, mem, sctx)
		if !ok {
			continue
		}
		state.ActiveWarnings = append(state.ActiveWarnings, reading)

		risk := float64(reading.Level.Severity()) / 4 * (1 - reading.Distance)
		if risk > state.OverallRisk {
			state.OverallRisk = risk
		}
		if reading.Level.Severity() > worst.Severity() {
			worst = reading.Level
		}
	}

	switch worst {
	case domain.WarningCritical:
		state.RecommendedAction = domain.ActionEscape
	case domain.WarningHigh:
		state.RecommendedAction = domain.ActionPivot
	case domain.WarningMedium:
		state.RecommendedAction = domain.ActionCaution
	}

	m.remember(mem.SessionID, state.ActiveWarnings)

	m.logger.Debug("barrier evaluation",
		zap.String("session_id", mem.SessionID),
		zap.Float64("overall_risk", state.OverallRisk),
		zap.String("action", string(state.RecommendedAction)),
		zap.Int("active_warnings", len(state.ActiveWarnings)))

	return state
}

// runSensor isolates a single sensor: a panic is logged and treated as a
// no-reading, so one broken sensor cannot take down monitoring.
func (m *BarrierMonitor) runSensor(s sensor, mem *domain.PathMemory, sctx *domain.SessionContext) (reading domain.SensorReading, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("sensor panicked, skipping", zap.Any("panic", r))
			ok = false
		}
	}()
	return s(mem, sctx)
}

func (m *BarrierMonitor) remember(sessionID string, readings []domain.SensorReading) {
	if len(readings) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.history[sessionID], readings...)
	if len(h) > m.cfg.WarningHistoryBound {
		h = h[len(h)-m.cfg.WarningHistoryBound:]
	}
	m.history[sessionID] = h
}

// History returns the retained readings for a session, oldest first.
func (m *BarrierMonitor) History(sessionID string) []domain.SensorReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SensorReading(nil), m.history[sessionID]...)
}

// Reset clears the retained history for a session.
func (m *BarrierMonitor) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, sessionID)
}
