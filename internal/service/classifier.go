package service

import (
	"strings"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// Classifier maps free-form decision and constraint text onto constraint
// types. The default is a keyword heuristic; a future evidence-based
// classifier can be substituted without touching the engine.
type Classifier interface {
	ClassifyConstraint(description string) domain.ConstraintType
	HighStakes(decision string) bool
}

// HeuristicClassifier is the default keyword-based classifier.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

var constraintKeywords = map[domain.ConstraintType][]string{
	domain.ConstraintTechnical:      {"architecture", "technical", "code", "system", "infrastructure", "api", "platform", "database", "legacy"},
	domain.ConstraintSocial:         {"team", "stakeholder", "relationship", "trust", "communication", "customer", "user"},
	domain.ConstraintFinancial:      {"budget", "cost", "revenue", "funding", "investment", "price", "financial", "money"},
	domain.ConstraintCognitive:      {"assumption", "belief", "mindset", "framing", "perspective", "bias", "mental"},
	domain.ConstraintOrganizational: {"process", "policy", "approval", "hierarchy", "department", "compliance", "governance"},
	domain.ConstraintResource:       {"time", "capacity", "headcount", "staff", "bandwidth", "deadline", "resource"},
}

var highStakesKeywords = []string{
	"irreversible", "permanent", "contract", "commit", "final",
	"acquisition", "layoff", "migration", "rewrite", "launch",
}

// ClassifyConstraint picks the constraint type whose keyword set has the
// most hits in the description. Ties and no-hits fall back to cognitive,
// since unclassified constraints come from how the problem is framed.
func (c *HeuristicClassifier) ClassifyConstraint(description string) domain.ConstraintType {
	lower := strings.ToLower(description)

	best := domain.ConstraintCognitive
	bestHits := 0
	for _, t := range domain.ConstraintTypes {
		hits := 0
		for _, kw := range constraintKeywords[t] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = t
			bestHits = hits
		}
	}
	return best
}

// HighStakes reports whether the decision text reads as hard to undo.
func (c *HeuristicClassifier) HighStakes(decision string) bool {
	lower := strings.ToLower(decision)
	for _, kw := range highStakesKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
