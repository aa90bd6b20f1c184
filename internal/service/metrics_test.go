package service

import (
	"math/rand"
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCalculator() *MetricsCalculator {
	return NewMetricsCalculator(testConfig(), zap.NewNop())
}

func TestCalculateEmptyPathIsFullyFlexible(t *testing.T) {
	calc := newTestCalculator()

	m := calc.Calculate(memoryWith(nil, nil, 1.0))

	assert.Equal(t, 1.0, m.FlexibilityScore)
	assert.Equal(t, 1.0, m.ReversibilityIndex)
	assert.Equal(t, 0.0, m.CommitmentDepth)
	assert.Equal(t, 0.0, m.OptionVelocity)
	assert.Equal(t, 1.0, m.NearestBarrier())
}

func TestCalculateScoreStaysInUnitIntervalUnderRandomPaths(t *testing.T) {
	calc := newTestCalculator()
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		var events []domain.PathEvent
		var constraints []domain.Constraint
		n := 1 + rng.Intn(30)
		for i := 0; i < n; i++ {
			events = append(events, eventWith("s", "technique", i+1, rng.Float64(), rng.Float64()))
		}
		for i := 0; i < rng.Intn(10); i++ {
			constraints = append(constraints, constraintOf(domain.ConstraintTechnical, "c", rng.Float64()))
		}

		m := calc.Calculate(memoryWith(events, constraints, 1.0))

		assert.GreaterOrEqual(t, m.FlexibilityScore, 0.0)
		assert.LessOrEqual(t, m.FlexibilityScore, 1.0)
		assert.GreaterOrEqual(t, m.ReversibilityIndex, 0.0)
		assert.LessOrEqual(t, m.ReversibilityIndex, 1.0)
		assert.GreaterOrEqual(t, m.CommitmentDepth, 0.0)
		assert.LessOrEqual(t, m.CommitmentDepth, 1.0)
		for _, bp := range m.BarrierProximity {
			assert.GreaterOrEqual(t, bp.Distance, 0.0)
			assert.LessOrEqual(t, bp.Distance, 1.0)
		}
	}
}

func TestCalculateHighCommitmentPathScoresCritical(t *testing.T) {
	calc := newTestCalculator()

	var events []domain.PathEvent
	var constraints []domain.Constraint
	for i := 0; i < 10; i++ {
		events = append(events, eventWith("s", "technique", i+1, 0.9, 0.9))
		constraints = append(constraints, constraintOf(domain.ConstraintTechnical, "locked", 0.9))
	}

	m := calc.Calculate(memoryWith(events, constraints, 1.0))

	assert.Less(t, m.FlexibilityScore, 0.2)
	assert.InDelta(t, 0.1, m.ReversibilityIndex, 1e-9)
	assert.InDelta(t, 0.9, m.CommitmentDepth, 1e-9)
	assert.Equal(t, 0.0, m.NearestBarrier())
}

func TestCalculateUsesRecentWindowOnly(t *testing.T) {
	calc := newTestCalculator()

	// Ten harsh old events followed by ten fully free recent ones: the
	// windowed score components must see only the free ones.
	var events []domain.PathEvent
	for i := 0; i < 10; i++ {
		events = append(events, eventWith("s", "technique", i+1, 1.0, 1.0))
	}
	for i := 10; i < 20; i++ {
		events = append(events, eventWith("s", "technique", i+1, 0.0, 0.0))
	}

	m := calc.Calculate(memoryWith(events, nil, 1.0))

	// Whole-path aggregates still reflect the full history.
	assert.InDelta(t, 0.5, m.ReversibilityIndex, 1e-9)
	assert.InDelta(t, 0.5, m.CommitmentDepth, 1e-9)
	// Windowed reversibility is perfect, so the score is dominated by
	// the clean recent window.
	assert.Greater(t, m.FlexibilityScore, 0.8)
}

func TestCalculateOptionVelocity(t *testing.T) {
	calc := newTestCalculator()

	e1 := eventWith("s", "technique", 1, 0.2, 0.2)
	e1.OptionsOpened = []string{"a", "b", "c"}
	e2 := eventWith("s", "technique", 2, 0.2, 0.2)
	e2.OptionsClosed = []string{"a"}

	m := calc.Calculate(memoryWith([]domain.PathEvent{e1, e2}, nil, 1.0))
	assert.InDelta(t, 1.0, m.OptionVelocity, 1e-9)

	e2.OptionsClosed = []string{"a", "b", "c"}
	e2.OptionsOpened = nil
	m = calc.Calculate(memoryWith([]domain.PathEvent{e1, e2}, nil, 1.0))
	assert.InDelta(t, 0.0, m.OptionVelocity, 1e-9)
}

func TestWarningsGraduateWithScore(t *testing.T) {
	calc := newTestCalculator()

	cases := []struct {
		score float64
		level domain.WarningLevel
	}{
		{0.15, domain.WarningCritical},
		{0.25, domain.WarningHigh},
		{0.35, domain.WarningMedium},
	}

	for _, tc := range cases {
		warnings := calc.Warnings(domain.FlexibilityMetrics{FlexibilityScore: tc.score})
		require.Len(t, warnings, 1, "score %.2f", tc.score)
		assert.Equal(t, tc.level, warnings[0].Level)
		assert.Equal(t, "flexibility_score", warnings[0].Metric)
		assert.NotEmpty(t, warnings[0].Recommendations)
	}

	assert.Empty(t, calc.Warnings(domain.FlexibilityMetrics{FlexibilityScore: 0.45}))
}

func TestWarningsFlagNegativeVelocityAndNearBarriers(t *testing.T) {
	calc := newTestCalculator()

	warnings := calc.Warnings(domain.FlexibilityMetrics{
		FlexibilityScore: 0.5,
		OptionVelocity:   -0.5,
		BarrierProximity: []domain.BarrierProximity{
			{Barrier: domain.BarrierIrreversibilityLockIn, Distance: 0.1},
			{Barrier: domain.BarrierCognitiveLockIn, Distance: 0.25},
			{Barrier: domain.BarrierResourceDepletion, Distance: 0.9},
		},
	})

	require.Len(t, warnings, 3)
	assert.Equal(t, domain.WarningMedium, warnings[0].Level)
	assert.Equal(t, "option_velocity", warnings[0].Metric)
	assert.Equal(t, domain.WarningCritical, warnings[1].Level)
	assert.Equal(t, domain.WarningHigh, warnings[2].Level)
}
