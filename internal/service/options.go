package service

import (
	"fmt"
	"sort"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// Generation triggers: conditions under which option generation is worth
// running at all.
const (
	generateBelowFlexibility = 0.4
	generateBelowBarrier     = 0.3
	maxOptionsPerStrategy    = 4
)

// OptionEngine runs the independent generation strategies against a path
// snapshot and collects candidate options. A single failing strategy is
// isolated; generation continues with the rest.
type OptionEngine struct {
	strategies []OptionStrategy
	evaluator  *OptionEvaluator
	cfg        Config
	logger     *zap.Logger
}

func NewOptionEngine(cfg Config, logger *zap.Logger) *OptionEngine {
	return &OptionEngine{
		strategies: defaultStrategies(),
		evaluator:  NewOptionEvaluator(logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// StrategyNames lists the registered strategies in invocation-priority-
// independent (registration) order.
func (e *OptionEngine) StrategyNames() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// ShouldGenerate reports whether the session's metrics warrant option
// generation: flexibility below 0.4, options closing faster than they
// open, or any barrier closer than 0.3.
func (e *OptionEngine) ShouldGenerate(m domain.FlexibilityMetrics) bool {
	if m.FlexibilityScore < generateBelowFlexibility {
		return true
	}
	if m.OptionVelocity < 0 {
		return true
	}
	for _, bp := range m.BarrierProximity {
		if bp.Distance < generateBelowBarrier {
			return true
		}
	}
	return false
}

// Generate ranks the applicable strategies by priority and invokes them
// in order until the target count is collected, then evaluates and ranks
// every collected option.
func (e *OptionEngine) Generate(mem *domain.PathMemory, req domain.OptionRequest) *domain.OptionGenerationResult {
	target := req.TargetCount
	if target <= 0 {
		target = e.cfg.TargetOptionCount
	}

	allowed := make(map[domain.OptionCategory]bool, len(req.Categories))
	for _, c := range req.Categories {
		allowed[c] = true
	}

	var applicable []OptionStrategy
	for _, s := range e.strategies {
		if s.Applicable(mem) {
			applicable = append(applicable, s)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority(mem) > applicable[j].Priority(mem)
	})

	result := &domain.OptionGenerationResult{}
	for _, s := range applicable {
		if len(result.Options) >= target {
			break
		}

		options, err := e.runStrategy(s, mem)
		if err != nil {
			e.logger.Warn("option strategy failed, continuing with remaining strategies",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			result.Degraded = append(result.Degraded, s.Name())
			continue
		}

		used := false
		for _, opt := range options {
			if len(result.Options) >= target {
				break
			}
			if len(allowed) > 0 && !allowed[opt.Category] {
				continue
			}
			result.Options = append(result.Options, opt)
			used = true
		}
		if used {
			result.StrategiesUsed = append(result.StrategiesUsed, s.Name())
		}
	}

	result.Evaluations = e.evaluator.Evaluate(result.Options, mem)

	e.logger.Debug("options generated",
		zap.String("session_id", mem.SessionID),
		zap.Int("count", len(result.Options)),
		zap.Strings("strategies", result.StrategiesUsed),
		zap.Strings("degraded", result.Degraded))

	return result
}

// runStrategy isolates one strategy invocation: errors are returned,
// panics are converted to errors, and output is capped at the
// per-strategy limit.
func (e *OptionEngine) runStrategy(s OptionStrategy, mem *domain.PathMemory) (options []domain.Option, err error) {
	defer func() {
		if r := recover(); r != nil {
			options = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()

	options, err = s.Generate(mem)
	if err != nil {
		return nil, err
	}
	if len(options) > maxOptionsPerStrategy {
		options = options[:maxOptionsPerStrategy]
	}
	return options, nil
}
