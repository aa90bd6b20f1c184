package service

import (
	"fmt"
	"math"
	"time"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// A sensor is a pure function over path memory and session context. It
// reports one barrier reading, or ok=false when it has nothing to say.
type sensor func(mem *domain.PathMemory, sctx *domain.SessionContext) (domain.SensorReading, bool)

// Sensor distance thresholds map distance-to-barrier onto warning levels.
const (
	sensorCritical = 0.15
	sensorHigh     = 0.3
	sensorMedium   = 0.5
)

func levelForDistance(distance float64) domain.WarningLevel {
	switch {
	case distance < sensorCritical:
		return domain.WarningCritical
	case distance < sensorHigh:
		return domain.WarningHigh
	case distance < sensorMedium:
		return domain.WarningMedium
	default:
		return domain.WarningLow
	}
}

// stepsToImpact projects how many more steps at the current erosion rate
// reach the barrier. A non-eroding trajectory reports a large horizon.
func stepsToImpact(distance, erosionPerStep float64) int {
	if erosionPerStep <= 0.001 {
		return 99
	}
	steps := int(math.Ceil(distance / erosionPerStep))
	if steps < 0 {
		return 0
	}
	return steps
}

// reversibilitySensor watches cumulative irreversible commitment.
func reversibilitySensor(mem *domain.PathMemory, _ *domain.SessionContext) (domain.SensorReading, bool) {
	if len(mem.Events) == 0 {
		return domain.SensorReading{}, false
	}
	window := recentWindow(mem.Events, 5)
	var costSum float64
	for _, e := range window {
		costSum += e.ReversibilityCost
	}
	meanCost := costSum / float64(len(window))
	distance := clamp01(1 - meanCost)

	return domain.SensorReading{
		Sensor:        "reversibility",
		Barrier:       domain.BarrierIrreversibilityLockIn,
		Level:         levelForDistance(distance),
		Distance:      distance,
		StepsToImpact: stepsToImpact(distance, meanCost*0.2),
		Message:       fmt.Sprintf("Recent decisions average %.0f%% reversibility cost", meanCost*100),
		ObservedAt:    time.Now(),
	}, true
}

// commitmentSensor watches cognitive lock-in through commitment depth.
func commitmentSensor(mem *domain.PathMemory, _ *domain.SessionContext) (domain.SensorReading, bool) {
	if len(mem.Events) == 0 {
		return domain.SensorReading{}, false
	}
	var depthSum float64
	for _, e := range mem.Events {
		depthSum += e.CommitmentLevel
	}
	depth := depthSum / float64(len(mem.Events))
	distance := clamp01(1 - depth)

	return domain.SensorReading{
		Sensor:        "commitment",
		Barrier:       domain.BarrierCognitiveLockIn,
		Level:         levelForDistance(distance),
		Distance:      distance,
		StepsToImpact: stepsToImpact(distance, depth*0.15),
		Message:       fmt.Sprintf("Commitment depth across the session is %.2f", depth),
		ObservedAt:    time.Now(),
	}, true
}

// constraintSensor watches accumulated constraint pressure.
func constraintSensor(mem *domain.PathMemory, _ *domain.SessionContext) (domain.SensorReading, bool) {
	if len(mem.Constraints) == 0 {
		return domain.SensorReading{}, false
	}
	total := mem.TotalConstraintStrength()
	// Roughly seven strong constraints exhaust the session's headroom.
	distance := clamp01(1 - total/7.0)
	perStep := total / float64(len(mem.Events)+1)

	return domain.SensorReading{
		Sensor:        "constraint_pressure",
		Barrier:       domain.BarrierResourceDepletion,
		Level:         levelForDistance(distance),
		Distance:      distance,
		StepsToImpact: stepsToImpact(distance, perStep*0.1),
		Message:       fmt.Sprintf("%d constraints with total strength %.1f are narrowing the path", len(mem.Constraints), total),
		ObservedAt:    time.Now(),
	}, true
}

// optionSensor watches depletion of the available-option set.
func optionSensor(mem *domain.PathMemory, _ *domain.SessionContext) (domain.SensorReading, bool) {
	if len(mem.Events) < 2 {
		return domain.SensorReading{}, false
	}
	var opened, closed int
	for _, e := range mem.Events {
		opened += len(e.OptionsOpened)
		closed += len(e.OptionsClosed)
	}
	if opened == 0 && closed == 0 {
		return domain.SensorReading{}, false
	}
	// Distance is how much of the opened option pool survives.
	distance := 1.0
	if opened > 0 {
		distance = clamp01(float64(opened-closed) / float64(opened))
	} else {
		distance = 0
	}
	closeRate := float64(closed) / float64(len(mem.Events))

	return domain.SensorReading{
		Sensor:        "option_depletion",
		Barrier:       domain.BarrierResourceDepletion,
		Level:         levelForDistance(distance),
		Distance:      distance,
		StepsToImpact: stepsToImpact(distance, closeRate*0.2),
		Message:       fmt.Sprintf("%d options opened, %d closed over the session", opened, closed),
		ObservedAt:    time.Now(),
	}, true
}
