package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// Constraint creation threshold: a decision this hard to reverse leaves
// a constraint behind even when the technique handler names none.
const constraintCostThreshold = 0.7

// PathMemoryService owns one session's cumulative path: the append-only
// event record, accumulated constraints, and the available-option set.
// Not safe for concurrent use; the session manager serializes access
// (single writer per session).
type PathMemoryService struct {
	sessionID   string
	events      []domain.PathEvent
	constraints []domain.Constraint
	options     []string
	lastMetrics domain.FlexibilityMetrics
	classifier  Classifier
	cfg         Config
	logger      *zap.Logger
}

func NewPathMemoryService(sessionID string, classifier Classifier, cfg Config, logger *zap.Logger) *PathMemoryService {
	return &PathMemoryService{
		sessionID:  sessionID,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		lastMetrics: domain.FlexibilityMetrics{
			FlexibilityScore:   1.0,
			ReversibilityIndex: 1.0,
		},
	}
}

// RecordEvent appends a new path event and folds its impact into the
// constraint and option sets. The returned event is a copy; history is
// never mutated after the append.
func (s *PathMemoryService) RecordEvent(technique string, step int, decision string, impact domain.Impact) domain.PathEvent {
	cost := s.cfg.DefaultReversibilityCost
	if impact.ReversibilityCost != nil {
		cost = clamp01(*impact.ReversibilityCost)
	}
	commitment := s.cfg.DefaultCommitmentLevel
	if impact.CommitmentLevel != nil {
		commitment = clamp01(*impact.CommitmentLevel)
	}

	event := domain.PathEvent{
		ID:                 uuid.New(),
		SessionID:          s.sessionID,
		Timestamp:          time.Now(),
		Technique:          technique,
		Step:               step,
		Decision:           decision,
		OptionsOpened:      append([]string(nil), impact.OptionsOpened...),
		OptionsClosed:      append([]string(nil), impact.OptionsClosed...),
		ReversibilityCost:  cost,
		CommitmentLevel:    commitment,
		ConstraintsCreated: append([]string(nil), impact.ConstraintsCreated...),
	}
	s.events = append(s.events, event)

	for _, desc := range impact.ConstraintsCreated {
		s.addConstraint(desc, cost)
	}
	// A hard-to-reverse decision constrains the path even when the
	// handler names no constraint explicitly.
	if cost > constraintCostThreshold && len(impact.ConstraintsCreated) == 0 {
		s.addConstraint(decision, cost)
	}

	for _, opt := range impact.OptionsOpened {
		s.addOption(opt)
	}
	for _, opt := range impact.OptionsClosed {
		s.removeOption(opt)
	}

	s.logger.Debug("path event recorded",
		zap.String("session_id", s.sessionID),
		zap.String("technique", technique),
		zap.Int("step", step),
		zap.Float64("reversibility_cost", cost),
		zap.Float64("commitment_level", commitment),
		zap.Int("constraints", len(s.constraints)))

	return event
}

// Replay re-applies a persisted event during rehydration without
// generating a new identity or timestamp.
func (s *PathMemoryService) Replay(event domain.PathEvent) {
	s.events = append(s.events, event)

	for _, desc := range event.ConstraintsCreated {
		s.addConstraint(desc, event.ReversibilityCost)
	}
	if event.ReversibilityCost > constraintCostThreshold && len(event.ConstraintsCreated) == 0 {
		s.addConstraint(event.Decision, event.ReversibilityCost)
	}
	for _, opt := range event.OptionsOpened {
		s.addOption(opt)
	}
	for _, opt := range event.OptionsClosed {
		s.removeOption(opt)
	}
}

func (s *PathMemoryService) addConstraint(description string, strength float64) {
	s.constraints = append(s.constraints, domain.Constraint{
		ID:          uuid.New(),
		Type:        s.classifier.ClassifyConstraint(description),
		Description: description,
		Strength:    clamp01(strength),
		CreatedAt:   time.Now(),
	})
}

func (s *PathMemoryService) addOption(name string) {
	for _, o := range s.options {
		if o == name {
			return
		}
	}
	s.options = append(s.options, name)
}

func (s *PathMemoryService) removeOption(name string) {
	for i, o := range s.options {
		if o == name {
			s.options = append(s.options[:i], s.options[i+1:]...)
			return
		}
	}
}

// SetMetrics stores the most recent metrics snapshot alongside the path.
func (s *PathMemoryService) SetMetrics(m domain.FlexibilityMetrics) {
	s.lastMetrics = m
}

// Snapshot returns an immutable deep copy of the current path memory.
// Two consecutive snapshots with no intervening write are structurally
// equal.
func (s *PathMemoryService) Snapshot() *domain.PathMemory {
	mem := &domain.PathMemory{
		SessionID:        s.sessionID,
		Events:           make([]domain.PathEvent, len(s.events)),
		Constraints:      make([]domain.Constraint, len(s.constraints)),
		AvailableOptions: append([]string(nil), s.options...),
		Metrics:          s.lastMetrics,
	}
	for i, e := range s.events {
		copied := e
		copied.OptionsOpened = append([]string(nil), e.OptionsOpened...)
		copied.OptionsClosed = append([]string(nil), e.OptionsClosed...)
		copied.ConstraintsCreated = append([]string(nil), e.ConstraintsCreated...)
		mem.Events[i] = copied
	}
	copy(mem.Constraints, s.constraints)
	mem.Metrics.BarrierProximity = append([]domain.BarrierProximity(nil), s.lastMetrics.BarrierProximity...)
	return mem
}

// Remedy catalog for escape-route derivation, keyed by the constraint
// type each route addresses.
var escapeRemedies = map[domain.ConstraintType]domain.EscapeRoute{
	domain.ConstraintTechnical:      {Name: "modular_refactoring", Description: "Decouple the committed components so they can be replaced independently"},
	domain.ConstraintSocial:         {Name: "stakeholder_renegotiation", Description: "Reopen expectations with the people the path has committed to"},
	domain.ConstraintFinancial:      {Name: "budget_rebalancing", Description: "Shift uncommitted budget toward reversible alternatives"},
	domain.ConstraintCognitive:      {Name: "assumption_testing", Description: "Surface and test the framing assumptions locking the path in"},
	domain.ConstraintOrganizational: {Name: "process_exception", Description: "Negotiate an exception to the process that narrowed the path"},
	domain.ConstraintResource:       {Name: "capacity_recovery", Description: "Free committed capacity by deferring non-critical work"},
}

// EscapeRoutes derives ranked candidate remedies from the accumulated
// constraints. Feasibility is the inverse of the mean strength of the
// constraints a remedy addresses; strongest-held constraints produce the
// least feasible routes.
func (s *PathMemoryService) EscapeRoutes() []domain.EscapeRoute {
	type bucket struct {
		total float64
		count int
	}
	byType := make(map[domain.ConstraintType]*bucket)
	for _, c := range s.constraints {
		b := byType[c.Type]
		if b == nil {
			b = &bucket{}
			byType[c.Type] = b
		}
		b.total += c.Strength
		b.count++
	}

	routes := make([]domain.EscapeRoute, 0, len(byType))
	for t, b := range byType {
		remedy, ok := escapeRemedies[t]
		if !ok {
			continue
		}
		remedy.Addresses = t
		remedy.Feasibility = clamp01(1 - b.total/float64(b.count))
		routes = append(routes, remedy)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Feasibility != routes[j].Feasibility {
			return routes[i].Feasibility > routes[j].Feasibility
		}
		return routes[i].Name < routes[j].Name
	})
	return routes
}

// ApplyEscape reduces the constraint set and extends the option set with
// the outcome of an executed protocol. This is the only path through
// which constraints shrink; event history is never rewritten.
func (s *PathMemoryService) ApplyEscape(result *domain.EscapeAttemptResult) {
	if len(result.ConstraintsRemoved) > 0 {
		removed := make(map[string]struct{}, len(result.ConstraintsRemoved))
		for _, desc := range result.ConstraintsRemoved {
			removed[desc] = struct{}{}
		}
		kept := s.constraints[:0]
		for _, c := range s.constraints {
			if _, ok := removed[c.Description]; ok {
				delete(removed, c.Description)
				continue
			}
			kept = append(kept, c)
		}
		s.constraints = kept
	}
	for _, opt := range result.OptionsCreated {
		s.addOption(opt)
	}

	s.logger.Info("escape protocol applied to path memory",
		zap.String("session_id", s.sessionID),
		zap.Int("level", int(result.Level)),
		zap.Int("constraints_removed", len(result.ConstraintsRemoved)),
		zap.Int("options_created", len(result.OptionsCreated)))
}

// WeakestConstraints returns up to n constraints ordered by ascending
// strength; these are the ones an escape protocol dissolves first.
func (s *PathMemoryService) WeakestConstraints(n int) []domain.Constraint {
	sorted := append([]domain.Constraint(nil), s.constraints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Strength < sorted[j].Strength })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// EventCount reports the current history length.
func (s *PathMemoryService) EventCount() int {
	return len(s.events)
}
