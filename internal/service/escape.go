package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrUnknownProtocol and ErrFallbackMissing indicate a broken
	// deployment and are raised immediately, never swallowed.
	ErrUnknownProtocol = errors.New("requested escape protocol level does not exist")
	ErrFallbackMissing = errors.New("mandatory level-1 fallback protocol is missing from the registry")

	// Validation errors are rejected before any state mutation.
	ErrInsufficientFlexibility = errors.New("current flexibility is below the protocol's requirement")
	ErrApprovalRequired        = errors.New("protocol level requires explicit user approval")
)

// Selection thresholds over total constraint strength.
const (
	escapeSafetyFactor    = 1.2
	strengthHighThreshold = 0.8
	strengthMidThreshold  = 0.5
	lowSuccessThreshold   = 0.5
	highInteractionLevel  = 0.3
)

// EscapeVelocityService computes escape requirements and executes escape
// protocols. Protocol templates are stateless; the service's only
// mutable state is the per-session attempt statistics.
type EscapeVelocityService struct {
	registry   map[domain.ProtocolLevel]domain.EscapeProtocol
	classifier Classifier
	rng        domain.Rand
	logger     *zap.Logger

	mu        sync.Mutex
	attempts  int
	successes int
	gainSum   float64
	gainByLvl map[domain.ProtocolLevel]float64
	runsByLvl map[domain.ProtocolLevel]int
}

func NewEscapeVelocityService(classifier Classifier, cfg Config, logger *zap.Logger) *EscapeVelocityService {
	return &EscapeVelocityService{
		registry:   protocolRegistry(),
		classifier: classifier,
		rng:        cfg.Rand,
		logger:     logger,
		gainByLvl:  make(map[domain.ProtocolLevel]float64),
		runsByLvl:  make(map[domain.ProtocolLevel]int),
	}
}

// Protocols lists the available templates ordered by disruptiveness.
func (s *EscapeVelocityService) Protocols() []domain.EscapeProtocol {
	return protocolsByDisruptiveness(s.registry)
}

// Analyze computes the full escape requirement picture for the session:
// constraint pressure, resource inventory, required force, the selected
// protocol, a phased plan, and any feasibility warnings.
func (s *EscapeVelocityService) Analyze(mem *domain.PathMemory, sctx *domain.SessionContext) (*domain.EscapeAnalysis, error) {
	items := constraintItems(mem)
	totalStrength, interaction := constraintPressure(items)
	resources := s.resourceInventory(mem, sctx)
	available := resources.Available()
	forceNeeded := totalStrength * escapeSafetyFactor

	recommended, err := s.selectProtocol(mem.Metrics.FlexibilityScore, totalStrength)
	if err != nil {
		return nil, err
	}

	analysis := &domain.EscapeAnalysis{
		SessionID:          mem.SessionID,
		Constraints:        items,
		TotalStrength:      totalStrength,
		InteractionEffects: interaction,
		Resources:          resources,
		AvailableResources: available,
		EscapeForceNeeded:  forceNeeded,
		Recommended:        recommended,
		Plan:               buildPlan(recommended),
	}

	if available < forceNeeded {
		analysis.Warnings = append(analysis.Warnings, domain.Warning{
			Level:     domain.WarningHigh,
			Message:   fmt.Sprintf("Available resources %.2f fall short of the escape force needed %.2f", available, forceNeeded),
			Metric:    "available_resources",
			Value:     available,
			Threshold: forceNeeded,
			Recommendations: []string{
				"Free capacity before executing, or pick a less disruptive protocol",
			},
		})
	}
	if recommended.SuccessProbability < lowSuccessThreshold {
		analysis.Warnings = append(analysis.Warnings, domain.Warning{
			Level:     domain.WarningMedium,
			Message:   fmt.Sprintf("Protocol %q succeeds only %.0f%% of the time", recommended.Name, recommended.SuccessProbability*100),
			Metric:    "success_probability",
			Value:     recommended.SuccessProbability,
			Threshold: lowSuccessThreshold,
		})
	}
	if totalStrength > strengthHighThreshold {
		analysis.Warnings = append(analysis.Warnings, domain.Warning{
			Level:     domain.WarningHigh,
			Message:   fmt.Sprintf("Constraint pressure %.2f is severe", totalStrength),
			Metric:    "total_strength",
			Value:     totalStrength,
			Threshold: strengthHighThreshold,
		})
	}
	if interaction > highInteractionLevel {
		analysis.Warnings = append(analysis.Warnings, domain.Warning{
			Level:     domain.WarningMedium,
			Message:   fmt.Sprintf("Constraints are tightly coupled (interaction %.2f) - removing one may not free the path", interaction),
			Metric:    "interaction_effects",
			Value:     interaction,
			Threshold: highInteractionLevel,
		})
	}

	s.logger.Debug("escape analysis",
		zap.String("session_id", mem.SessionID),
		zap.Float64("total_strength", totalStrength),
		zap.Float64("force_needed", forceNeeded),
		zap.Float64("available", available),
		zap.Int("recommended_level", int(recommended.Level)))

	return analysis, nil
}

// selectProtocol filters to protocols whose flexibility requirement is
// met, then picks by constraint pressure: severe pressure takes the most
// disruptive qualifying protocol, moderate the median, mild the least.
// With no qualifying protocol, level 1 is force-selected as the
// emergency fallback; its absence is a fatal configuration error.
func (s *EscapeVelocityService) selectProtocol(currentFlexibility, totalStrength float64) (domain.EscapeProtocol, error) {
	var qualifying []domain.EscapeProtocol
	for _, p := range protocolsByDisruptiveness(s.registry) {
		if p.RequiredFlexibility <= currentFlexibility {
			qualifying = append(qualifying, p)
		}
	}

	if len(qualifying) == 0 {
		fallback, ok := s.registry[domain.LevelPatternInterruption]
		if !ok {
			return domain.EscapeProtocol{}, ErrFallbackMissing
		}
		return fallback, nil
	}

	switch {
	case totalStrength > strengthHighThreshold:
		return qualifying[len(qualifying)-1], nil
	case totalStrength > strengthMidThreshold:
		return qualifying[len(qualifying)/2], nil
	default:
		return qualifying[0], nil
	}
}

// Execute runs one protocol against the given snapshot. Validation
// failures leave all state untouched. The flexibility gain is drawn from
// the protocol's bounded range via the injected random source.
func (s *EscapeVelocityService) Execute(level domain.ProtocolLevel, mem *domain.PathMemory, weakest []domain.Constraint, approved bool) (*domain.EscapeAttemptResult, error) {
	protocol, ok := s.registry[level]
	if !ok {
		return nil, fmt.Errorf("%w: level %d", ErrUnknownProtocol, level)
	}
	if protocol.RequiredFlexibility > mem.Metrics.FlexibilityScore {
		return nil, fmt.Errorf("%w: need %.2f, have %.2f",
			ErrInsufficientFlexibility, protocol.RequiredFlexibility, mem.Metrics.FlexibilityScore)
	}
	if protocol.RequiresApproval() && !approved {
		return nil, fmt.Errorf("%w: level %d", ErrApprovalRequired, level)
	}

	gain := protocol.GainMin + s.rng.Float64()*(protocol.GainMax-protocol.GainMin)
	succeeded := s.rng.Float64() < protocol.SuccessProbability
	if !succeeded {
		// A failed attempt still interrupts the pattern; half gain.
		gain *= 0.5
	}

	result := &domain.EscapeAttemptResult{
		SessionID:         mem.SessionID,
		Level:             level,
		ProtocolName:      protocol.Name,
		FlexibilityBefore: mem.Metrics.FlexibilityScore,
		FlexibilityAfter:  clamp01(mem.Metrics.FlexibilityScore + gain),
		Gain:              gain,
		Succeeded:         succeeded,
		ExecutedAt:        time.Now(),
	}
	for _, c := range weakest {
		result.ConstraintsRemoved = append(result.ConstraintsRemoved, c.Description)
	}
	for _, step := range protocol.Steps {
		result.OptionsCreated = append(result.OptionsCreated, fmt.Sprintf("%s: %s", protocol.Name, step))
	}

	s.recordAttempt(level, gain, succeeded)

	s.logger.Info("escape protocol executed",
		zap.String("session_id", mem.SessionID),
		zap.Int("level", int(level)),
		zap.Float64("gain", gain),
		zap.Bool("succeeded", succeeded))

	return result, nil
}

// ConstraintsToRemove reports how many constraints an execution of the
// given level dissolves; disruptiveness buys removal capacity.
func ConstraintsToRemove(level domain.ProtocolLevel) int {
	return int(level)
}

func (s *EscapeVelocityService) recordAttempt(level domain.ProtocolLevel, gain float64, succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if succeeded {
		s.successes++
	}
	s.gainSum += gain
	s.gainByLvl[level] += gain
	s.runsByLvl[level]++
}

// Stats aggregates the attempts executed through this service: counts,
// running average gain, and the historically most effective protocol.
func (s *EscapeVelocityService) Stats() domain.EscapeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.EscapeStats{
		Attempts:  s.attempts,
		Successes: s.successes,
	}
	if s.attempts > 0 {
		stats.AverageGain = s.gainSum / float64(s.attempts)
	}
	best := 0.0
	for level, total := range s.gainByLvl {
		avg := total / float64(s.runsByLvl[level])
		if avg > best {
			best = avg
			stats.MostEffective = level
		}
	}
	return stats
}

// constraintItems groups the session's constraints per type.
func constraintItems(mem *domain.PathMemory) []domain.ConstraintItem {
	type bucket struct {
		total float64
		descs []string
	}
	byType := make(map[domain.ConstraintType]*bucket)
	for _, c := range mem.Constraints {
		b := byType[c.Type]
		if b == nil {
			b = &bucket{}
			byType[c.Type] = b
		}
		b.total += c.Strength
		b.descs = append(b.descs, c.Description)
	}

	items := make([]domain.ConstraintItem, 0, len(byType))
	for _, t := range domain.ConstraintTypes {
		b, ok := byType[t]
		if !ok {
			continue
		}
		items = append(items, domain.ConstraintItem{
			Type:         t,
			Count:        len(b.descs),
			MeanStrength: b.total / float64(len(b.descs)),
			Descriptions: b.descs,
		})
	}
	return items
}

// constraintPressure combines per-type items into a total strength with
// interaction effects. Interaction grows as type diversity shrinks: a
// homogeneous constraint set is a coupled one.
func constraintPressure(items []domain.ConstraintItem) (total, interaction float64) {
	if len(items) == 0 {
		return 0, 0
	}
	var sum float64
	for _, it := range items {
		sum += it.MeanStrength
	}
	mean := sum / float64(len(items))

	diversity := float64(len(items)) / float64(len(domain.ConstraintTypes))
	interaction = clamp01(0.5 * (1 - diversity))

	return clamp01(mean * (1 + interaction)), interaction
}

// resourceInventory estimates the six resource channels from the session
// shape: long sessions drain time and attention, constraint counts drain
// the channel matching their type.
func (s *EscapeVelocityService) resourceInventory(mem *domain.PathMemory, sctx *domain.SessionContext) domain.ResourceInventory {
	inv := domain.ResourceInventory{
		Time:                  1.0,
		Attention:             1.0,
		SocialCapital:         0.8,
		TechnicalCapacity:     0.8,
		Financial:             0.7,
		OrganizationalSupport: 0.7,
	}

	if sctx != nil && !sctx.StartedAt.IsZero() {
		hours := time.Since(sctx.StartedAt).Hours()
		inv.Time = clamp01(1 - hours/8)
		if sctx.TimePressure > 0 {
			inv.Time = clamp01(inv.Time * (1 - sctx.TimePressure/2))
		}
	}
	inv.Attention = clamp01(1 - float64(len(mem.Events))/50)

	for _, c := range mem.Constraints {
		switch c.Type {
		case domain.ConstraintSocial:
			inv.SocialCapital -= 0.1 * c.Strength
		case domain.ConstraintTechnical:
			inv.TechnicalCapacity -= 0.1 * c.Strength
		case domain.ConstraintFinancial:
			inv.Financial -= 0.1 * c.Strength
		case domain.ConstraintOrganizational:
			inv.OrganizationalSupport -= 0.1 * c.Strength
		case domain.ConstraintResource:
			inv.Time -= 0.05 * c.Strength
			inv.Attention -= 0.05 * c.Strength
		}
	}

	inv.Time = clamp01(inv.Time)
	inv.Attention = clamp01(inv.Attention)
	inv.SocialCapital = clamp01(inv.SocialCapital)
	inv.TechnicalCapacity = clamp01(inv.TechnicalCapacity)
	inv.Financial = clamp01(inv.Financial)
	inv.OrganizationalSupport = clamp01(inv.OrganizationalSupport)
	return inv
}

// buildPlan lays the protocol's steps into the three-phase execution
// plan with explicit rollback per phase.
func buildPlan(p domain.EscapeProtocol) []domain.ExecutionPhase {
	mid := len(p.Steps) / 2
	return []domain.ExecutionPhase{
		{
			Name:     "Preparation",
			Actions:  append([]string{"Snapshot the current path memory and metrics"}, p.Steps[:mid]...),
			Rollback: "Discard the preparation notes; the path is untouched",
		},
		{
			Name:     "Execution",
			Actions:  p.Steps[mid:],
			Rollback: "Restore the snapshotted constraints and options, then re-run metrics",
		},
		{
			Name: "Consolidation",
			Actions: []string{
				"Record which constraints were removed and which options opened",
				"Re-run barrier monitoring to confirm the gained flexibility",
			},
			Rollback: "Keep the attempt in the audit log and mark it unsuccessful",
		},
	}
}
