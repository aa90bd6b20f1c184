package domain

// Barrier names the absorbing barriers the engine tracks. A barrier is a
// state from which recovery is impossible or prohibitively costly.
type Barrier string

const (
	BarrierIrreversibilityLockIn Barrier = "irreversibility_lock_in"
	BarrierCognitiveLockIn       Barrier = "cognitive_lock_in"
	BarrierResourceDepletion     Barrier = "resource_depletion"
)

// BarrierProximity reports the remaining distance to one barrier.
// Distance 1 means fully clear, 0 means the barrier has been reached.
type BarrierProximity struct {
	Barrier  Barrier `json:"barrier"`
	Distance float64 `json:"distance"`
}

// FlexibilityMetrics is the derived snapshot of a session's remaining
// decision freedom. Recomputed on every ingestion, never persisted
// independently of PathMemory.
type FlexibilityMetrics struct {
	FlexibilityScore   float64            `json:"flexibility_score"`
	PathDivergence     float64            `json:"path_divergence"`
	ReversibilityIndex float64            `json:"reversibility_index"`
	OptionVelocity     float64            `json:"option_velocity"`
	CommitmentDepth    float64            `json:"commitment_depth"`
	BarrierProximity   []BarrierProximity `json:"barrier_proximity"`
}

// NearestBarrier returns the smallest barrier distance, or 1 when no
// proximity has been computed yet.
func (m FlexibilityMetrics) NearestBarrier() float64 {
	nearest := 1.0
	for _, bp := range m.BarrierProximity {
		if bp.Distance < nearest {
			nearest = bp.Distance
		}
	}
	return nearest
}

type WarningLevel string

const (
	WarningLow      WarningLevel = "low"
	WarningMedium   WarningLevel = "medium"
	WarningHigh     WarningLevel = "high"
	WarningCritical WarningLevel = "critical"
)

// Severity orders warning levels for comparison; higher is worse.
func (l WarningLevel) Severity() int {
	switch l {
	case WarningCritical:
		return 4
	case WarningHigh:
		return 3
	case WarningMedium:
		return 2
	case WarningLow:
		return 1
	default:
		return 0
	}
}

// Warning is user-visible escalation data. Warnings propagate as part of
// a normal successful result, never as errors.
type Warning struct {
	Level           WarningLevel `json:"level"`
	Message         string       `json:"message"`
	Metric          string       `json:"metric"`
	Value           float64      `json:"value"`
	Threshold       float64      `json:"threshold"`
	Recommendations []string     `json:"recommendations,omitempty"`
}
