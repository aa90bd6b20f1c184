package service

import (
	"testing"
	"time"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMonitor() *BarrierMonitor {
	return NewBarrierMonitor(testConfig(), zap.NewNop())
}

func testSessionContext() *domain.SessionContext {
	return &domain.SessionContext{
		SessionID: "test-session",
		Problem:   "design a migration plan",
		StartedAt: time.Now(),
	}
}

func TestEvaluateEmptyPathRecommendsContinue(t *testing.T) {
	monitor := newTestMonitor()

	state := monitor.Evaluate(memoryWith(nil, nil, 1.0), testSessionContext())

	assert.Equal(t, domain.ActionContinue, state.RecommendedAction)
	assert.Empty(t, state.ActiveWarnings)
	assert.Equal(t, 0.0, state.OverallRisk)
}

func TestEvaluateHealthyPathStaysCalm(t *testing.T) {
	monitor := newTestMonitor()

	events := []domain.PathEvent{
		eventWith("s", "six_hats", 1, 0.1, 0.1),
		eventWith("s", "six_hats", 2, 0.1, 0.2),
	}

	state := monitor.Evaluate(memoryWith(events, nil, 1.0), testSessionContext())

	assert.Equal(t, domain.ActionContinue, state.RecommendedAction)
	for _, r := range state.ActiveWarnings {
		assert.Equal(t, domain.WarningLow, r.Level)
	}
}

func TestEvaluateIrreversiblePathRecommendsEscape(t *testing.T) {
	monitor := newTestMonitor()

	var events []domain.PathEvent
	for i := 0; i < 5; i++ {
		events = append(events, eventWith("s", "po", i+1, 0.9, 0.9))
	}

	state := monitor.Evaluate(memoryWith(events, nil, 1.0), testSessionContext())

	assert.Equal(t, domain.ActionEscape, state.RecommendedAction)
	assert.Greater(t, state.OverallRisk, 0.8)

	var sensors []string
	for _, r := range state.ActiveWarnings {
		sensors = append(sensors, r.Sensor)
	}
	assert.Contains(t, sensors, "reversibility")
	assert.Contains(t, sensors, "commitment")
}

func TestEvaluateModerateCommitmentRecommendsCaution(t *testing.T) {
	monitor := newTestMonitor()

	var events []domain.PathEvent
	for i := 0; i < 4; i++ {
		events = append(events, eventWith("s", "scamper", i+1, 0.6, 0.6))
	}

	state := monitor.Evaluate(memoryWith(events, nil, 1.0), testSessionContext())

	assert.Equal(t, domain.ActionCaution, state.RecommendedAction)
}

func TestConstraintSensorTracksAccumulatedPressure(t *testing.T) {
	monitor := newTestMonitor()

	constraints := []domain.Constraint{
		constraintOf(domain.ConstraintTechnical, "a", 1.0),
		constraintOf(domain.ConstraintTechnical, "b", 1.0),
		constraintOf(domain.ConstraintTechnical, "c", 1.0),
		constraintOf(domain.ConstraintTechnical, "d", 1.0),
		constraintOf(domain.ConstraintTechnical, "e", 1.0),
		constraintOf(domain.ConstraintTechnical, "f", 1.0),
	}
	events := []domain.PathEvent{eventWith("s", "po", 1, 0.1, 0.1)}

	state := monitor.Evaluate(memoryWith(events, constraints, 1.0), testSessionContext())

	var found *domain.SensorReading
	for i, r := range state.ActiveWarnings {
		if r.Sensor == "constraint_pressure" {
			found = &state.ActiveWarnings[i]
		}
	}
	require.NotNil(t, found)
	// Six of roughly seven units of headroom are spent.
	assert.InDelta(t, 1.0/7.0, found.Distance, 1e-9)
	assert.Equal(t, domain.WarningCritical, found.Level)
}

func TestMonitorHistoryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.WarningHistoryBound = 6
	monitor := NewBarrierMonitor(cfg, zap.NewNop())

	events := []domain.PathEvent{
		eventWith("s", "po", 1, 0.9, 0.9),
		eventWith("s", "po", 2, 0.9, 0.9),
	}
	mem := memoryWith(events, nil, 1.0)

	for i := 0; i < 10; i++ {
		monitor.Evaluate(mem, testSessionContext())
	}

	history := monitor.History("test-session")
	assert.Len(t, history, 6)
}

func TestMonitorResetClearsHistory(t *testing.T) {
	monitor := newTestMonitor()

	events := []domain.PathEvent{eventWith("s", "po", 1, 0.9, 0.9)}
	monitor.Evaluate(memoryWith(events, nil, 1.0), testSessionContext())
	require.NotEmpty(t, monitor.History("test-session"))

	monitor.Reset("test-session")
	assert.Empty(t, monitor.History("test-session"))
}

func TestRunSensorIsolatesPanics(t *testing.T) {
	monitor := newTestMonitor()
	monitor.sensors = append(monitor.sensors, func(_ *domain.PathMemory, _ *domain.SessionContext) (domain.SensorReading, bool) {
		panic("broken sensor")
	})

	events := []domain.PathEvent{eventWith("s", "po", 1, 0.2, 0.2)}

	assert.NotPanics(t, func() {
		state := monitor.Evaluate(memoryWith(events, nil, 1.0), testSessionContext())
		assert.Equal(t, "test-session", state.SessionID)
	})
}
