package domain

import "github.com/google/uuid"

type OptionCategory string

const (
	CategoryStructural OptionCategory = "structural"
	CategoryTemporal   OptionCategory = "temporal"
	CategoryConceptual OptionCategory = "conceptual"
	CategoryRelational OptionCategory = "relational"
	CategoryResource   OptionCategory = "resource"
	CategoryCapability OptionCategory = "capability"
)

func ValidOptionCategory(c string) bool {
	switch OptionCategory(c) {
	case CategoryStructural, CategoryTemporal, CategoryConceptual,
		CategoryRelational, CategoryResource, CategoryCapability:
		return true
	}
	return false
}

// Option is a synthesized alternative decision path intended to restore
// flexibility. Immutable once created.
type Option struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      OptionCategory `json:"category"`
	Strategy      string         `json:"strategy"`
	Actions       []string       `json:"actions,omitempty"`
	Prerequisites []string       `json:"prerequisites,omitempty"`
}

type RecommendationTier string

const (
	TierHighlyRecommended RecommendationTier = "highly_recommended"
	TierRecommended       RecommendationTier = "recommended"
	TierNeutral           RecommendationTier = "neutral"
	TierNotRecommended    RecommendationTier = "not_recommended"
)

// OptionEvaluation scores one option on five independent axes combined
// into an overall score.
type OptionEvaluation struct {
	OptionID           uuid.UUID          `json:"option_id"`
	FlexibilityGain    float64            `json:"flexibility_gain"`
	ImplementationCost float64            `json:"implementation_cost"`
	Reversibility      float64            `json:"reversibility"`
	Synergy            float64            `json:"synergy"`
	TimeToValueDays    float64            `json:"time_to_value_days"`
	OverallScore       float64            `json:"overall_score"`
	Recommendation     RecommendationTier `json:"recommendation"`
}

// OptionRequest scopes one generation call.
type OptionRequest struct {
	Categories  []OptionCategory `json:"categories,omitempty"`
	TargetCount int              `json:"target_count,omitempty"`
}

// OptionGenerationResult pairs generated options with their evaluations,
// sorted by overall score descending.
type OptionGenerationResult struct {
	Options        []Option           `json:"options"`
	Evaluations    []OptionEvaluation `json:"evaluations"`
	StrategiesUsed []string           `json:"strategies_used"`
	Degraded       []string           `json:"degraded,omitempty"`
}
