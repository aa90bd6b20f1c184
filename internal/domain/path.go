package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConstraintType string

const (
	ConstraintTechnical      ConstraintType = "technical"
	ConstraintSocial         ConstraintType = "social"
	ConstraintFinancial      ConstraintType = "financial"
	ConstraintCognitive      ConstraintType = "cognitive"
	ConstraintOrganizational ConstraintType = "organizational"
	ConstraintResource       ConstraintType = "resource"
)

// ConstraintTypes lists every valid constraint type in a fixed order.
var ConstraintTypes = []ConstraintType{
	ConstraintTechnical,
	ConstraintSocial,
	ConstraintFinancial,
	ConstraintCognitive,
	ConstraintOrganizational,
	ConstraintResource,
}

func ValidConstraintType(t string) bool {
	switch ConstraintType(t) {
	case ConstraintTechnical, ConstraintSocial, ConstraintFinancial,
		ConstraintCognitive, ConstraintOrganizational, ConstraintResource:
		return true
	}
	return false
}

// PathEvent is a single recorded decision. Immutable once appended.
type PathEvent struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          string    `json:"session_id"`
	Timestamp          time.Time `json:"timestamp"`
	Technique          string    `json:"technique"`
	Step               int       `json:"step"`
	Decision           string    `json:"decision"`
	OptionsOpened      []string  `json:"options_opened,omitempty"`
	OptionsClosed      []string  `json:"options_closed,omitempty"`
	ReversibilityCost  float64   `json:"reversibility_cost"`
	CommitmentLevel    float64   `json:"commitment_level"`
	ConstraintsCreated []string  `json:"constraints_created,omitempty"`
}

// Impact describes the flexibility consequences a technique handler
// attributes to a decision. Nil cost/commitment fall back to defaults.
type Impact struct {
	OptionsOpened      []string `json:"options_opened,omitempty"`
	OptionsClosed      []string `json:"options_closed,omitempty"`
	ReversibilityCost  *float64 `json:"reversibility_cost,omitempty"`
	CommitmentLevel    *float64 `json:"commitment_level,omitempty"`
	ConstraintsCreated []string `json:"constraints_created,omitempty"`
}

// Constraint is a named, typed, strength-scored limitation accumulated
// from prior decisions. Constraints only grow, or are removed by an
// executed escape protocol.
type Constraint struct {
	ID          uuid.UUID      `json:"id"`
	Type        ConstraintType `json:"type"`
	Description string         `json:"description"`
	Strength    float64        `json:"strength"`
	CreatedAt   time.Time      `json:"created_at"`
}

// EscapeRoute is a candidate named remedy derived from the current
// constraint set. Feasibility is the inverse of the mean strength of the
// constraints the route addresses.
type EscapeRoute struct {
	Name        string         `json:"name"`
	Addresses   ConstraintType `json:"addresses"`
	Description string         `json:"description"`
	Feasibility float64        `json:"feasibility"`
}

// PathMemory is an immutable snapshot of a session's accumulated path:
// ordered events, constraints, the currently available options, and the
// last computed metrics. History order is causal order.
type PathMemory struct {
	SessionID        string             `json:"session_id"`
	Events           []PathEvent        `json:"events"`
	Constraints      []Constraint       `json:"constraints"`
	AvailableOptions []string           `json:"available_options"`
	Metrics          FlexibilityMetrics `json:"metrics"`
}

// TotalConstraintStrength sums the strength of all accumulated constraints.
func (m *PathMemory) TotalConstraintStrength() float64 {
	var total float64
	for _, c := range m.Constraints {
		total += c.Strength
	}
	return total
}

// DistinctTechniques counts the techniques used so far.
func (m *PathMemory) DistinctTechniques() int {
	seen := make(map[string]struct{}, len(m.Events))
	for _, e := range m.Events {
		seen[e.Technique] = struct{}{}
	}
	return len(seen)
}

// SessionContext carries caller-provided information about the session
// that is not derivable from the path itself.
type SessionContext struct {
	SessionID    string    `json:"session_id"`
	Problem      string    `json:"problem,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	PlannedSteps int       `json:"planned_steps,omitempty"`
	CurrentStep  int       `json:"current_step,omitempty"`
	Stakeholders []string  `json:"stakeholders,omitempty"`
	TimePressure float64   `json:"time_pressure,omitempty"`
	UserApproval bool      `json:"user_approval,omitempty"`
}
