package domain

import "time"

type RecommendedAction string

const (
	ActionContinue RecommendedAction = "continue"
	ActionCaution  RecommendedAction = "caution"
	ActionPivot    RecommendedAction = "pivot"
	ActionEscape   RecommendedAction = "escape"
)

// SensorReading is one sensor's view of the session: which barrier it
// watches, how close the session is, and an estimated number of steps
// until impact at the current trajectory.
type SensorReading struct {
	Sensor        string       `json:"sensor"`
	Barrier       Barrier      `json:"barrier"`
	Level         WarningLevel `json:"level"`
	Distance      float64      `json:"distance"`
	StepsToImpact int          `json:"steps_to_impact"`
	Message       string       `json:"message"`
	ObservedAt    time.Time    `json:"observed_at"`
}

// EarlyWarningState aggregates all active sensor readings into an
// overall risk and a single recommended action.
type EarlyWarningState struct {
	SessionID         string            `json:"session_id"`
	ActiveWarnings    []SensorReading   `json:"active_warnings"`
	OverallRisk       float64           `json:"overall_risk"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
	EvaluatedAt       time.Time         `json:"evaluated_at"`
}
