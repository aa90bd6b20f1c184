package service

import (
	"math/rand"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// Config carries the engine tunables. It is passed explicitly at
// construction; there are no environment toggles inside the engine.
type Config struct {
	// RecentWindow is the number of trailing events the score and
	// velocity calculations look at.
	RecentWindow int
	// ConstraintDecayFactor scales how fast accumulated constraint
	// strength erodes the flexibility score.
	ConstraintDecayFactor float64
	// WarningHistoryBound caps the per-session sensor reading history.
	WarningHistoryBound int
	// SessionCapacity bounds the registry's resident session arena.
	SessionCapacity int
	// DefaultReversibilityCost and DefaultCommitmentLevel apply when a
	// technique handler omits the impact fields.
	DefaultReversibilityCost float64
	DefaultCommitmentLevel   float64
	// TargetOptionCount is the default number of options one generation
	// call tries to collect.
	TargetOptionCount int
	// Rand is the randomness source for protocol execution. Seedable so
	// tests can assert exact outcomes.
	Rand domain.Rand
}

// DefaultConfig returns the production tuning with a seeded source.
func DefaultConfig(seed int64) Config {
	return Config{
		RecentWindow:             10,
		ConstraintDecayFactor:    0.15,
		WarningHistoryBound:      50,
		SessionCapacity:          256,
		DefaultReversibilityCost: 0.3,
		DefaultCommitmentLevel:   0.3,
		TargetOptionCount:        10,
		Rand:                     rand.New(rand.NewSource(seed)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
