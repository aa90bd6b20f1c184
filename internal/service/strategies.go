package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

// OptionStrategy is one independent generation strategy. Applicable is a
// precondition heuristic over the path; Generate proposes up to four
// candidate options.
type OptionStrategy interface {
	Name() string
	Category() domain.OptionCategory
	Applicable(mem *domain.PathMemory) bool
	Priority(mem *domain.PathMemory) float64
	Generate(mem *domain.PathMemory) ([]domain.Option, error)
}

// Recombination preconditions: enough history and technique diversity to
// have something worth recombining.
const (
	recombinationMinEvents     = 5
	recombinationMinTechniques = 2
)

func defaultStrategies() []OptionStrategy {
	return []OptionStrategy{
		&decompositionStrategy{},
		&temporalStrategy{},
		&abstractionStrategy{},
		&inversionStrategy{},
		&stakeholderStrategy{},
		&resourceStrategy{},
		&capabilityStrategy{},
		&recombinationStrategy{},
	}
}

// AvailableStrategyNames lists the registered strategies in registration
// order, for catalog surfaces that have no session at hand.
func AvailableStrategyNames() []string {
	strategies := defaultStrategies()
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	return names
}

func lastDecision(mem *domain.PathMemory) string {
	if len(mem.Events) == 0 {
		return ""
	}
	return mem.Events[len(mem.Events)-1].Decision
}

func newOption(strategy string, category domain.OptionCategory, name, description string, actions, prereqs []string) domain.Option {
	return domain.Option{
		ID:            uuid.New(),
		Name:          name,
		Description:   description,
		Category:      category,
		Strategy:      strategy,
		Actions:       actions,
		Prerequisites: prereqs,
	}
}

// decompositionStrategy splits the latest committed decision into
// independently reversible parts.
type decompositionStrategy struct{}

func (s *decompositionStrategy) Name() string                    { return "decomposition" }
func (s *decompositionStrategy) Category() domain.OptionCategory { return domain.CategoryStructural }

func (s *decompositionStrategy) Applicable(mem *domain.PathMemory) bool {
	return len(mem.Events) > 0
}

func (s *decompositionStrategy) Priority(mem *domain.PathMemory) float64 {
	// Deep commitment is what decomposition relieves.
	return 0.5 + 0.5*mem.Metrics.CommitmentDepth
}

func (s *decompositionStrategy) Generate(mem *domain.PathMemory) ([]domain.Option, error) {
	decision := lastDecision(mem)
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Split the last commitment",
			fmt.Sprintf("Decompose %q into independently deliverable parts so each can be reversed alone", decision),
			[]string{"Identify the natural seams in the decision", "Commit only to the first part"},
			nil),
		newOption(s.Name(), s.Category(),
			"Extract a pilot slice",
			"Carve the smallest testable slice out of the current path and treat the rest as optional",
			[]string{"Define the slice boundary", "Defer everything outside the slice"},
			[]string{"The decision must be divisible"}),
	}, nil
}

// temporalStrategy shifts commitments in time rather than undoing them.
type temporalStrategy struct{}

func (s *temporalStrategy) Name() string                    { return "temporal" }
func (s *temporalStrategy) Category() domain.OptionCategory { return domain.CategoryTemporal }

func (s *temporalStrategy) Applicable(_ *domain.PathMemory) bool { return true }

func (s *temporalStrategy) Priority(mem *domain.PathMemory) float64 {
	// Irreversible-heavy paths benefit most from deferral.
	return 0.4 + 0.6*(1-mem.Metrics.ReversibilityIndex)
}

func (s *temporalStrategy) Generate(mem *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Defer the next irreversible step",
			"Postpone the next high-commitment decision until at least two alternatives are validated",
			[]string{"Name the decision being deferred", "Set an explicit revisit trigger"},
			nil),
		newOption(s.Name(), s.Category(),
			"Time-box an experiment",
			"Run the most uncertain branch as a bounded experiment before committing",
			[]string{"Pick the branch with the widest outcome spread", "Bound it to a fixed number of steps"},
			nil),
		newOption(s.Name(), s.Category(),
			"Stage the rollout",
			"Convert the committed plan into stages with an exit point after each",
			[]string{"Define stage boundaries", "Attach a go/no-go check to each boundary"},
			nil),
	}, nil
}

// abstractionStrategy climbs one level up to reopen the framing.
type abstractionStrategy struct{}

func (s *abstractionStrategy) Name() string                    { return "abstraction" }
func (s *abstractionStrategy) Category() domain.OptionCategory { return domain.CategoryConceptual }

func (s *abstractionStrategy) Applicable(mem *domain.PathMemory) bool {
	return len(mem.Events) >= 2
}

func (s *abstractionStrategy) Priority(mem *domain.PathMemory) float64 {
	return 0.3 + 0.1*float64(len(mem.Constraints))
}

func (s *abstractionStrategy) Generate(mem *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Restate the goal one level up",
			fmt.Sprintf("Ask what %q is in service of, and solve that instead", lastDecision(mem)),
			[]string{"Write the purpose behind the last decision", "List paths to that purpose the current framing hides"},
			nil),
		newOption(s.Name(), s.Category(),
			"Generalize the constraint",
			"Treat the strongest constraint as an instance of a class and borrow solutions from other instances",
			[]string{"Name the constraint class", "Survey how adjacent domains relax it"},
			[]string{"At least one constraint recorded"}),
	}, nil
}

// inversionStrategy flips the committed direction to expose the options
// the current path forecloses.
type inversionStrategy struct{}

func (s *inversionStrategy) Name() string                    { return "inversion" }
func (s *inversionStrategy) Category() domain.OptionCategory { return domain.CategoryConceptual }

func (s *inversionStrategy) Applicable(mem *domain.PathMemory) bool {
	return len(mem.Events) > 0
}

func (s *inversionStrategy) Priority(mem *domain.PathMemory) float64 {
	if mem.Metrics.OptionVelocity < 0 {
		return 0.8
	}
	return 0.4
}

func (s *inversionStrategy) Generate(mem *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Invert the last decision",
			fmt.Sprintf("Assume the opposite of %q and derive what would have to be true", lastDecision(mem)),
			[]string{"State the inverse decision", "List the conditions under which the inverse wins"},
			nil),
		newOption(s.Name(), s.Category(),
			"Work backwards from failure",
			"Describe the locked-in end state, then remove the step that leads there",
			[]string{"Write the failure narrative", "Identify the earliest avoidable step"},
			nil),
	}, nil
}

// stakeholderStrategy reopens options through the people the path has
// committed.
type stakeholderStrategy struct{}

func (s *stakeholderStrategy) Name() string                    { return "stakeholder" }
func (s *stakeholderStrategy) Category() domain.OptionCategory { return domain.CategoryRelational }

func (s *stakeholderStrategy) Applicable(mem *domain.PathMemory) bool {
	for _, c := range mem.Constraints {
		if c.Type == domain.ConstraintSocial || c.Type == domain.ConstraintOrganizational {
			return true
		}
	}
	return len(mem.Events) >= 3
}

func (s *stakeholderStrategy) Priority(mem *domain.PathMemory) float64 {
	n := 0
	for _, c := range mem.Constraints {
		if c.Type == domain.ConstraintSocial || c.Type == domain.ConstraintOrganizational {
			n++
		}
	}
	return 0.3 + 0.15*float64(n)
}

func (s *stakeholderStrategy) Generate(_ *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Recruit a dissenting reviewer",
			"Bring in a stakeholder who benefits from the path not taken and let them argue it",
			[]string{"Identify who loses under the current path", "Schedule a structured dissent review"},
			nil),
		newOption(s.Name(), s.Category(),
			"Renegotiate one expectation",
			"Pick the single expectation most responsible for lock-in and reopen it explicitly",
			[]string{"Rank expectations by how many options each forecloses", "Renegotiate the top one"},
			[]string{"Stakeholder willing to renegotiate"}),
	}, nil
}

// resourceStrategy converts slack resources into new decision paths.
type resourceStrategy struct{}

func (s *resourceStrategy) Name() string                    { return "resource" }
func (s *resourceStrategy) Category() domain.OptionCategory { return domain.CategoryResource }

func (s *resourceStrategy) Applicable(mem *domain.PathMemory) bool {
	for _, c := range mem.Constraints {
		if c.Type == domain.ConstraintResource || c.Type == domain.ConstraintFinancial {
			return true
		}
	}
	return len(mem.Events) >= 3
}

func (s *resourceStrategy) Priority(mem *domain.PathMemory) float64 {
	return 0.35 + 0.05*float64(len(mem.Constraints))
}

func (s *resourceStrategy) Generate(_ *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Reallocate from the committed thread",
			"Move capacity from the most committed line of work to the most open one",
			[]string{"Measure where effort currently concentrates", "Shift a fixed share to the open alternative"},
			nil),
		newOption(s.Name(), s.Category(),
			"Buy optionality",
			"Spend a small budget keeping a second path warm instead of closing it",
			[]string{"Price the cost of keeping the alternative alive", "Fund it as insurance"},
			[]string{"Uncommitted budget available"}),
	}, nil
}

// capabilityStrategy opens paths by building the skill that currently
// blocks them.
type capabilityStrategy struct{}

func (s *capabilityStrategy) Name() string                    { return "capability" }
func (s *capabilityStrategy) Category() domain.OptionCategory { return domain.CategoryCapability }

func (s *capabilityStrategy) Applicable(mem *domain.PathMemory) bool {
	return len(mem.Events) >= 3
}

func (s *capabilityStrategy) Priority(mem *domain.PathMemory) float64 {
	n := 0
	for _, c := range mem.Constraints {
		if c.Type == domain.ConstraintTechnical || c.Type == domain.ConstraintCognitive {
			n++
		}
	}
	return 0.25 + 0.1*float64(n)
}

func (s *capabilityStrategy) Generate(_ *domain.PathMemory) ([]domain.Option, error) {
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Close the blocking skill gap",
			"Identify the capability whose absence forces the current narrow path and build it",
			[]string{"Name the missing capability", "Plan the shortest route to competence"},
			nil),
	}, nil
}

// recombinationStrategy recombines decisions from different techniques
// into paths none of them produced alone. Needs real history: more than
// five events across more than two techniques.
type recombinationStrategy struct{}

func (s *recombinationStrategy) Name() string                    { return "recombination" }
func (s *recombinationStrategy) Category() domain.OptionCategory { return domain.CategoryStructural }

func (s *recombinationStrategy) Applicable(mem *domain.PathMemory) bool {
	return len(mem.Events) > recombinationMinEvents &&
		mem.DistinctTechniques() > recombinationMinTechniques
}

func (s *recombinationStrategy) Priority(mem *domain.PathMemory) float64 {
	return 0.2 + 0.1*float64(mem.DistinctTechniques())
}

func (s *recombinationStrategy) Generate(mem *domain.PathMemory) ([]domain.Option, error) {
	first := mem.Events[0]
	last := mem.Events[len(mem.Events)-1]
	return []domain.Option{
		newOption(s.Name(), s.Category(),
			"Recombine early and late thinking",
			fmt.Sprintf("Merge the %s framing of %q with the %s framing of %q into a single path",
				first.Technique, first.Decision, last.Technique, last.Decision),
			[]string{"List what each framing contributes", "Draft the combined path"},
			nil),
		newOption(s.Name(), s.Category(),
			"Cross-pollinate techniques",
			"Re-run the most productive technique's best step against a different technique's output",
			[]string{"Pick the step with the highest options opened", "Apply it to the other technique's material"},
			nil),
	}, nil
}
