package service

import (
	"fmt"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// Flexibility score component weights. The score is a weighted
// combination of reversibility, commitment headroom, constraint
// pressure, and barrier proximity.
const (
	WeightReversibility = 0.40
	WeightCommitment    = 0.30
	WeightConstraints   = 0.20
	WeightBarriers      = 0.10
)

// Warning thresholds over the computed metrics.
const (
	FlexibilityCritical = 0.2
	FlexibilityHigh     = 0.3
	FlexibilityMedium   = 0.4
	BarrierCritical     = 0.2
	BarrierHigh         = 0.3
)

// MetricsCalculator derives a FlexibilityMetrics snapshot from path
// memory. It holds no state of its own; warnings are pure functions of
// the metrics.
type MetricsCalculator struct {
	cfg    Config
	logger *zap.Logger
}

func NewMetricsCalculator(cfg Config, logger *zap.Logger) *MetricsCalculator {
	return &MetricsCalculator{cfg: cfg, logger: logger}
}

// Calculate recomputes the full metrics snapshot for the given memory.
func (c *MetricsCalculator) Calculate(mem *domain.PathMemory) domain.FlexibilityMetrics {
	window := recentWindow(mem.Events, c.cfg.RecentWindow)

	reversibility := 1.0
	commitment := 0.0
	if len(window) > 0 {
		var revSum, comSum float64
		for _, e := range window {
			revSum += 1 - e.ReversibilityCost
			comSum += e.CommitmentLevel
		}
		reversibility = revSum / float64(len(window))
		commitment = comSum / float64(len(window))
	}

	constraintTerm := 1 - c.cfg.ConstraintDecayFactor*mem.TotalConstraintStrength()
	if constraintTerm < 0 {
		constraintTerm = 0
	}

	var divergence, revIndexSum, depthSum float64
	for _, e := range mem.Events {
		divergence += e.ReversibilityCost * e.CommitmentLevel
		revIndexSum += 1 - e.ReversibilityCost
		depthSum += e.CommitmentLevel
	}
	revIndex := 1.0
	depth := 0.0
	if len(mem.Events) > 0 {
		revIndex = revIndexSum / float64(len(mem.Events))
		depth = depthSum / float64(len(mem.Events))
	}

	velocity := 0.0
	if len(window) > 0 {
		var opened, closed int
		for _, e := range window {
			opened += len(e.OptionsOpened)
			closed += len(e.OptionsClosed)
		}
		velocity = float64(opened-closed) / float64(len(window))
	}

	barriers := []domain.BarrierProximity{
		{Barrier: domain.BarrierIrreversibilityLockIn, Distance: clamp01(reversibility)},
		{Barrier: domain.BarrierCognitiveLockIn, Distance: clamp01(1 - depth)},
		{Barrier: domain.BarrierResourceDepletion, Distance: clamp01(constraintTerm)},
	}
	nearest := barriers[0].Distance
	for _, b := range barriers[1:] {
		if b.Distance < nearest {
			nearest = b.Distance
		}
	}

	score := clamp01(WeightReversibility*reversibility +
		WeightCommitment*(1-commitment) +
		WeightConstraints*constraintTerm +
		WeightBarriers*nearest)

	metrics := domain.FlexibilityMetrics{
		FlexibilityScore:   score,
		PathDivergence:     divergence,
		ReversibilityIndex: clamp01(revIndex),
		OptionVelocity:     velocity,
		CommitmentDepth:    clamp01(depth),
		BarrierProximity:   barriers,
	}

	c.logger.Debug("flexibility metrics computed",
		zap.String("session_id", mem.SessionID),
		zap.Float64("score", score),
		zap.Float64("divergence", divergence),
		zap.Float64("velocity", velocity))

	return metrics
}

// Warnings maps metric thresholds to graduated warnings. Pure function
// of the metrics, no hidden state.
func (c *MetricsCalculator) Warnings(m domain.FlexibilityMetrics) []domain.Warning {
	var warnings []domain.Warning

	switch {
	case m.FlexibilityScore < FlexibilityCritical:
		warnings = append(warnings, domain.Warning{
			Level:     domain.WarningCritical,
			Message:   fmt.Sprintf("Flexibility score %.2f is critically low - decision freedom is nearly exhausted", m.FlexibilityScore),
			Metric:    "flexibility_score",
			Value:     m.FlexibilityScore,
			Threshold: FlexibilityCritical,
			Recommendations: []string{
				"Stop committing to irreversible decisions",
				"Run escape velocity analysis before the next step",
			},
		})
	case m.FlexibilityScore < FlexibilityHigh:
		warnings = append(warnings, domain.Warning{
			Level:     domain.WarningHigh,
			Message:   fmt.Sprintf("Flexibility score %.2f is low - the path is narrowing quickly", m.FlexibilityScore),
			Metric:    "flexibility_score",
			Value:     m.FlexibilityScore,
			Threshold: FlexibilityHigh,
			Recommendations: []string{
				"Prefer reversible alternatives for upcoming decisions",
				"Generate new options to restore flexibility",
			},
		})
	case m.FlexibilityScore < FlexibilityMedium:
		warnings = append(warnings, domain.Warning{
			Level:     domain.WarningMedium,
			Message:   fmt.Sprintf("Flexibility score %.2f is declining", m.FlexibilityScore),
			Metric:    "flexibility_score",
			Value:     m.FlexibilityScore,
			Threshold: FlexibilityMedium,
			Recommendations: []string{
				"Review which recent decisions closed options",
			},
		})
	}

	if m.OptionVelocity < 0 {
		warnings = append(warnings, domain.Warning{
			Level:     domain.WarningMedium,
			Message:   fmt.Sprintf("Options are closing faster than they open (velocity %.2f per step)", m.OptionVelocity),
			Metric:    "option_velocity",
			Value:     m.OptionVelocity,
			Threshold: 0,
			Recommendations: []string{
				"Open at least one new option before closing another",
			},
		})
	}

	for _, bp := range m.BarrierProximity {
		switch {
		case bp.Distance < BarrierCritical:
			warnings = append(warnings, domain.Warning{
				Level:     domain.WarningCritical,
				Message:   fmt.Sprintf("Absorbing barrier %q is %.0f%% away", bp.Barrier, bp.Distance*100),
				Metric:    "barrier_proximity",
				Value:     bp.Distance,
				Threshold: BarrierCritical,
				Recommendations: []string{
					"Escape protocol execution is advised before further commitment",
				},
			})
		case bp.Distance < BarrierHigh:
			warnings = append(warnings, domain.Warning{
				Level:     domain.WarningHigh,
				Message:   fmt.Sprintf("Approaching absorbing barrier %q (distance %.2f)", bp.Barrier, bp.Distance),
				Metric:    "barrier_proximity",
				Value:     bp.Distance,
				Threshold: BarrierHigh,
				Recommendations: []string{
					"Avoid decisions that move further toward this barrier",
				},
			})
		}
	}

	return warnings
}

func recentWindow(events []domain.PathEvent, size int) []domain.PathEvent {
	if size <= 0 || len(events) <= size {
		return events
	}
	return events[len(events)-size:]
}
