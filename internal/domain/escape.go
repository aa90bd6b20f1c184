package domain

import "time"

// ProtocolLevel orders the five escape protocols by disruptiveness.
type ProtocolLevel int

const (
	LevelPatternInterruption  ProtocolLevel = 1
	LevelResourceReallocation ProtocolLevel = 2
	LevelStakeholderReset     ProtocolLevel = 3
	LevelTechnicalRefactoring ProtocolLevel = 4
	LevelStrategicPivot       ProtocolLevel = 5
)

// ApprovalThreshold is the first protocol level that requires explicit
// caller approval before execution. Levels below it run implicitly.
const ApprovalThreshold ProtocolLevel = LevelStakeholderReset

// EscapeProtocol is a stateless, pre-scripted recovery procedure.
// Templates live in a registry keyed by level; an execution of one
// produces an EscapeAttemptResult.
type EscapeProtocol struct {
	Level               ProtocolLevel `json:"level"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	RequiredFlexibility float64       `json:"required_flexibility"`
	GainMin             float64       `json:"gain_min"`
	GainMax             float64       `json:"gain_max"`
	SuccessProbability  float64       `json:"success_probability"`
	Steps               []string      `json:"steps"`
	Risks               []string      `json:"risks"`
}

// RequiresApproval reports whether the protocol needs explicit caller
// approval before it may execute.
func (p EscapeProtocol) RequiresApproval() bool {
	return p.Level >= ApprovalThreshold
}

// ConstraintItem is the per-type view produced by constraint analysis.
type ConstraintItem struct {
	Type         ConstraintType `json:"type"`
	Count        int            `json:"count"`
	MeanStrength float64        `json:"mean_strength"`
	Descriptions []string       `json:"descriptions,omitempty"`
}

// ResourceInventory estimates the six resource channels available for an
// escape attempt, each in [0,1].
type ResourceInventory struct {
	Time                  float64 `json:"time"`
	Attention             float64 `json:"attention"`
	SocialCapital         float64 `json:"social_capital"`
	TechnicalCapacity     float64 `json:"technical_capacity"`
	Financial             float64 `json:"financial"`
	OrganizationalSupport float64 `json:"organizational_support"`
}

// Fixed channel weights for combining the inventory into one scalar.
const (
	weightTime           = 0.2
	weightAttention      = 0.2
	weightSocial         = 0.15
	weightTechnical      = 0.2
	weightFinancial      = 0.15
	weightOrganizational = 0.1
)

// Available combines the six channels into a single scalar via the fixed
// weights 0.2/0.2/0.15/0.2/0.15/0.1.
func (r ResourceInventory) Available() float64 {
	return r.Time*weightTime +
		r.Attention*weightAttention +
		r.SocialCapital*weightSocial +
		r.TechnicalCapacity*weightTechnical +
		r.Financial*weightFinancial +
		r.OrganizationalSupport*weightOrganizational
}

// ExecutionPhase is one phase of an escape plan, with explicit rollback
// instructions.
type ExecutionPhase struct {
	Name     string   `json:"name"`
	Actions  []string `json:"actions"`
	Rollback string   `json:"rollback"`
}

// EscapeAnalysis is the full output of an escape-requirement calculation.
type EscapeAnalysis struct {
	SessionID          string           `json:"session_id"`
	Constraints        []ConstraintItem `json:"constraints"`
	TotalStrength      float64          `json:"total_strength"`
	InteractionEffects float64          `json:"interaction_effects"`
	Resources          ResourceInventory `json:"resources"`
	AvailableResources float64          `json:"available_resources"`
	EscapeForceNeeded  float64          `json:"escape_force_needed"`
	Recommended        EscapeProtocol   `json:"recommended"`
	Plan               []ExecutionPhase `json:"plan"`
	Warnings           []Warning        `json:"warnings,omitempty"`
}

// EscapeAttemptResult records one execution of a protocol.
type EscapeAttemptResult struct {
	SessionID          string        `json:"session_id"`
	Level              ProtocolLevel `json:"level"`
	ProtocolName       string        `json:"protocol_name"`
	FlexibilityBefore  float64       `json:"flexibility_before"`
	FlexibilityAfter   float64       `json:"flexibility_after"`
	Gain               float64       `json:"gain"`
	ConstraintsRemoved []string      `json:"constraints_removed,omitempty"`
	OptionsCreated     []string      `json:"options_created,omitempty"`
	Succeeded          bool          `json:"succeeded"`
	ExecutedAt         time.Time     `json:"executed_at"`
}

// EscapeStats aggregates protocol executions across one session's
// lifetime for monitoring.
type EscapeStats struct {
	Attempts      int           `json:"attempts"`
	Successes     int           `json:"successes"`
	AverageGain   float64       `json:"average_gain"`
	MostEffective ProtocolLevel `json:"most_effective,omitempty"`
}
