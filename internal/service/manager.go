package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"go.uber.org/zap"
)

// EscapeVelocityMessage is the critical escalation appended when the
// flexibility score crosses the critical threshold.
const EscapeVelocityMessage = "Escape velocity protocol recommended"

// StepResult is the full outcome of one ingested decision.
type StepResult struct {
	Event                domain.PathEvent          `json:"event"`
	Metrics              domain.FlexibilityMetrics `json:"metrics"`
	Warnings             []domain.Warning          `json:"warnings,omitempty"`
	EarlyWarning         *domain.EarlyWarningState `json:"early_warning,omitempty"`
	EscapeRecommendation *domain.EscapeProtocol    `json:"escape_recommendation,omitempty"`
	EscapeVelocityNeeded bool                      `json:"escape_velocity_needed"`
}

// ErgodicityManager is the single entry point for one session's
// flexibility tracking: it owns the session's path memory, metrics
// calculator, barrier monitor, escape subsystem, and option engine.
// Constructed per session via explicit dependency injection; never a
// process-wide singleton. Ingestion is serialized internally so one
// in-flight write per session is guaranteed; reads run on snapshots.
type ErgodicityManager struct {
	sessionID string
	cfg       Config
	logger    *zap.Logger

	mu      sync.RWMutex
	path    *PathMemoryService
	metrics *MetricsCalculator
	monitor *BarrierMonitor
	escape  *EscapeVelocityService
	options *OptionEngine

	// Optional persistence collaborators; nil disables write-through.
	events   domain.EventStore
	attempts domain.AttemptStore
}

func NewErgodicityManager(
	sessionID string,
	classifier Classifier,
	cfg Config,
	events domain.EventStore,
	attempts domain.AttemptStore,
	logger *zap.Logger,
) *ErgodicityManager {
	return &ErgodicityManager{
		sessionID: sessionID,
		cfg:       cfg,
		logger:    logger,
		path:      NewPathMemoryService(sessionID, classifier, cfg, logger),
		metrics:   NewMetricsCalculator(cfg, logger),
		monitor:   NewBarrierMonitor(cfg, logger),
		escape:    NewEscapeVelocityService(classifier, cfg, logger),
		options:   NewOptionEngine(cfg, logger),
		events:    events,
		attempts:  attempts,
	}
}

// RecordThinkingStep ingests one decision: append to path memory,
// recompute metrics, derive warnings, and - when session context is
// present - run barrier monitoring and, on an escape recommendation,
// escape analysis. Persistence failures degrade to log warnings; they
// never fail the step.
func (m *ErgodicityManager) RecordThinkingStep(
	ctx context.Context,
	technique string,
	step int,
	decision string,
	impact domain.Impact,
	sctx *domain.SessionContext,
) (*StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event := m.path.RecordEvent(technique, step, decision, impact)

	snapshot := m.path.Snapshot()
	metrics := m.metrics.Calculate(snapshot)
	m.path.SetMetrics(metrics)
	snapshot.Metrics = metrics

	result := &StepResult{
		Event:    event,
		Metrics:  metrics,
		Warnings: m.metrics.Warnings(metrics),
	}

	if sctx != nil {
		state := m.monitor.Evaluate(snapshot, sctx)
		result.EarlyWarning = &state

		if state.RecommendedAction == domain.ActionEscape {
			analysis, err := m.escape.Analyze(snapshot, sctx)
			if err != nil {
				// Fatal registry breakage surfaces immediately.
				return nil, err
			}
			result.EscapeRecommendation = &analysis.Recommended
		}
	}

	if metrics.FlexibilityScore < FlexibilityCritical {
		result.EscapeVelocityNeeded = true
		result.Warnings = append(result.Warnings, domain.Warning{
			Level:     domain.WarningCritical,
			Message:   fmt.Sprintf("%s: flexibility %.2f is below the critical threshold", EscapeVelocityMessage, metrics.FlexibilityScore),
			Metric:    "flexibility_score",
			Value:     metrics.FlexibilityScore,
			Threshold: FlexibilityCritical,
			Recommendations: []string{
				"Run escape velocity analysis and execute the recommended protocol",
			},
		})
	}

	if m.events != nil {
		if err := m.events.Append(ctx, &event); err != nil {
			m.logger.Warn("failed to persist path event",
				zap.String("session_id", m.sessionID),
				zap.Error(err))
		}
	}

	return result, nil
}

// GenerateOptions runs the option engine against the current snapshot.
func (m *ErgodicityManager) GenerateOptions(req domain.OptionRequest) *domain.OptionGenerationResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.options.Generate(m.path.Snapshot(), req)
}

// ShouldGenerateOptions reports whether the current metrics warrant a
// generation call.
func (m *ErgodicityManager) ShouldGenerateOptions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.options.ShouldGenerate(m.path.Snapshot().Metrics)
}

// AnalyzeEscapeVelocity computes the escape requirements for the
// session's current state.
func (m *ErgodicityManager) AnalyzeEscapeVelocity(sctx *domain.SessionContext) (*domain.EscapeAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.escape.Analyze(m.path.Snapshot(), sctx)
}

// ExecuteEscapeProtocol validates and runs one protocol, then applies
// its outcome to path memory and recomputes metrics. Validation errors
// leave state untouched. Levels at or above the approval threshold
// require approved=true.
func (m *ErgodicityManager) ExecuteEscapeProtocol(ctx context.Context, level domain.ProtocolLevel, approved bool) (*domain.EscapeAttemptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.path.Snapshot()
	weakest := m.path.WeakestConstraints(ConstraintsToRemove(level))

	result, err := m.escape.Execute(level, snapshot, weakest, approved)
	if err != nil {
		return nil, err
	}

	m.path.ApplyEscape(result)
	metrics := m.metrics.Calculate(m.path.Snapshot())
	// The protocol's gain applies on top of the structural recompute.
	metrics.FlexibilityScore = clamp01(metrics.FlexibilityScore + result.Gain)
	m.path.SetMetrics(metrics)

	if m.attempts != nil {
		if err := m.attempts.Record(ctx, result); err != nil {
			m.logger.Warn("failed to persist escape attempt",
				zap.String("session_id", m.sessionID),
				zap.Error(err))
		}
	}

	return result, nil
}

// Replay re-applies persisted events during rehydration and recomputes
// the metrics once at the end.
func (m *ErgodicityManager) Replay(events []domain.PathEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.path.Replay(e)
	}
	m.path.SetMetrics(m.metrics.Calculate(m.path.Snapshot()))
}

// PathMemory returns an immutable snapshot of the session's path.
func (m *ErgodicityManager) PathMemory() *domain.PathMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path.Snapshot()
}

// Metrics returns the most recent metrics snapshot.
func (m *ErgodicityManager) Metrics() domain.FlexibilityMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path.Snapshot().Metrics
}

// Warnings derives the current graduated warnings from the metrics.
func (m *ErgodicityManager) Warnings() []domain.Warning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics.Warnings(m.path.Snapshot().Metrics)
}

// EscapeRoutes derives ranked remedies from the current constraints.
func (m *ErgodicityManager) EscapeRoutes() []domain.EscapeRoute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path.EscapeRoutes()
}

// EvaluateBarriers runs monitoring on demand without recording a step.
func (m *ErgodicityManager) EvaluateBarriers(sctx *domain.SessionContext) domain.EarlyWarningState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.monitor.Evaluate(m.path.Snapshot(), sctx)
}

// MonitorHistory returns the bounded sensor history for audit.
func (m *ErgodicityManager) MonitorHistory() []domain.SensorReading {
	return m.monitor.History(m.sessionID)
}

// ResetMonitoring clears the retained sensor history.
func (m *ErgodicityManager) ResetMonitoring() {
	m.monitor.Reset(m.sessionID)
}

// AvailableProtocols lists the escape protocol templates.
func (m *ErgodicityManager) AvailableProtocols() []domain.EscapeProtocol {
	return m.escape.Protocols()
}

// AvailableStrategies lists the option generation strategies.
func (m *ErgodicityManager) AvailableStrategies() []string {
	return m.options.StrategyNames()
}

// EscapeStats aggregates this session's protocol executions.
func (m *ErgodicityManager) EscapeStats() domain.EscapeStats {
	return m.escape.Stats()
}

// Status assembles a human-readable summary of the session state.
func (m *ErgodicityManager) Status() string {
	m.mu.RLock()
	snapshot := m.path.Snapshot()
	m.mu.RUnlock()

	metrics := snapshot.Metrics
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d events, %d constraints, %d options open\n",
		snapshot.SessionID, len(snapshot.Events), len(snapshot.Constraints), len(snapshot.AvailableOptions))
	fmt.Fprintf(&b, "Flexibility %.2f", metrics.FlexibilityScore)
	switch {
	case metrics.FlexibilityScore < FlexibilityCritical:
		b.WriteString(" (critical - escape recommended)")
	case metrics.FlexibilityScore < FlexibilityHigh:
		b.WriteString(" (low)")
	case metrics.FlexibilityScore < FlexibilityMedium:
		b.WriteString(" (declining)")
	default:
		b.WriteString(" (healthy)")
	}
	fmt.Fprintf(&b, ", divergence %.2f, option velocity %+.2f\n",
		metrics.PathDivergence, metrics.OptionVelocity)

	nearest := metrics.NearestBarrier()
	fmt.Fprintf(&b, "Nearest absorbing barrier at distance %.2f", nearest)
	if stats := m.escape.Stats(); stats.Attempts > 0 {
		fmt.Fprintf(&b, "; %d escape attempts, %d succeeded, average gain %.2f",
			stats.Attempts, stats.Successes, stats.AverageGain)
	}
	return b.String()
}

// SessionID returns the session this manager owns.
func (m *ErgodicityManager) SessionID() string {
	return m.sessionID
}
