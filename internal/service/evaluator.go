package service

import (
	"sort"
	"strings"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// Evaluation axis weights; cost is inverted before weighting.
const (
	EvalWeightGain          = 0.30
	EvalWeightCost          = 0.20
	EvalWeightReversibility = 0.20
	EvalWeightSynergy       = 0.15
	EvalWeightTimeToValue   = 0.15
)

// Recommendation tier cutoffs over the overall score.
const (
	TierHighCutoff    = 0.70
	TierMidCutoff     = 0.55
	TierNeutralCutoff = 0.40
)

// maxTimeToValueDays normalizes time-to-value onto [0,1].
const maxTimeToValueDays = 30.0

// OptionEvaluator scores generated options on five independent axes and
// buckets them into recommendation tiers.
type OptionEvaluator struct {
	logger *zap.Logger
}

func NewOptionEvaluator(logger *zap.Logger) *OptionEvaluator {
	return &OptionEvaluator{logger: logger}
}

// Per-category axis baselines. Structural and temporal moves pay off
// fast; capability building pays off slowly but gains the most.
var categoryProfiles = map[domain.OptionCategory]struct {
	gain, cost, reversibility, days float64
}{
	domain.CategoryStructural: {gain: 0.7, cost: 0.5, reversibility: 0.6, days: 7},
	domain.CategoryTemporal:   {gain: 0.6, cost: 0.2, reversibility: 0.9, days: 3},
	domain.CategoryConceptual: {gain: 0.65, cost: 0.3, reversibility: 0.85, days: 5},
	domain.CategoryRelational: {gain: 0.55, cost: 0.5, reversibility: 0.5, days: 10},
	domain.CategoryResource:   {gain: 0.6, cost: 0.45, reversibility: 0.7, days: 7},
	domain.CategoryCapability: {gain: 0.75, cost: 0.65, reversibility: 0.8, days: 21},
}

// Evaluate scores every option and returns the evaluations sorted by
// overall score descending. Never returns more entries than options.
func (e *OptionEvaluator) Evaluate(options []domain.Option, mem *domain.PathMemory) []domain.OptionEvaluation {
	evaluations := make([]domain.OptionEvaluation, 0, len(options))
	for _, opt := range options {
		evaluations = append(evaluations, e.evaluateOne(opt, mem))
	}

	sort.SliceStable(evaluations, func(i, j int) bool {
		return evaluations[i].OverallScore > evaluations[j].OverallScore
	})
	return evaluations
}

func (e *OptionEvaluator) evaluateOne(opt domain.Option, mem *domain.PathMemory) domain.OptionEvaluation {
	profile, ok := categoryProfiles[opt.Category]
	if !ok {
		profile = categoryProfiles[domain.CategoryStructural]
	}

	cost := clamp01(profile.cost + 0.05*float64(len(opt.Prerequisites)))
	gain := profile.gain
	// Options generated under heavy constraint pressure buy back more
	// flexibility than the same option would on an open path.
	gain = clamp01(gain + 0.05*float64(len(mem.Constraints))*0.5)

	synergy := synergyWith(opt, mem)
	timeScore := clamp01(1 - profile.days/maxTimeToValueDays)

	overall := clamp01(EvalWeightGain*gain +
		EvalWeightCost*(1-cost) +
		EvalWeightReversibility*profile.reversibility +
		EvalWeightSynergy*synergy +
		EvalWeightTimeToValue*timeScore)

	return domain.OptionEvaluation{
		OptionID:           opt.ID,
		FlexibilityGain:    gain,
		ImplementationCost: cost,
		Reversibility:      profile.reversibility,
		Synergy:            synergy,
		TimeToValueDays:    profile.days,
		OverallScore:       overall,
		Recommendation:     tierFor(overall),
	}
}

// synergyWith measures word overlap between the option and the options
// already open plus the recent decisions. Complementary options score
// higher than isolated ones.
func synergyWith(opt domain.Option, mem *domain.PathMemory) float64 {
	optWords := strings.Fields(strings.ToLower(opt.Name + " " + opt.Description))
	if len(optWords) == 0 {
		return 0.5
	}

	var corpus strings.Builder
	for _, o := range mem.AvailableOptions {
		corpus.WriteString(strings.ToLower(o))
		corpus.WriteByte(' ')
	}
	for _, ev := range recentWindow(mem.Events, 5) {
		corpus.WriteString(strings.ToLower(ev.Decision))
		corpus.WriteByte(' ')
	}
	text := corpus.String()
	if text == "" {
		return 0.5
	}

	hits := 0
	for _, w := range optWords {
		if len(w) < 4 {
			continue
		}
		if strings.Contains(text, w) {
			hits++
		}
	}
	return clamp01(0.3 + float64(hits)/float64(len(optWords)))
}

func tierFor(score float64) domain.RecommendationTier {
	switch {
	case score >= TierHighCutoff:
		return domain.TierHighlyRecommended
	case score >= TierMidCutoff:
		return domain.TierRecommended
	case score >= TierNeutralCutoff:
		return domain.TierNeutral
	default:
		return domain.TierNotRecommended
	}
}
