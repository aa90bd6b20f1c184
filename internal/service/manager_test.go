package service

import (
	"context"
	"strings"
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(events domain.EventStore, attempts domain.AttemptStore) *ErgodicityManager {
	return NewErgodicityManager("test-session", NewHeuristicClassifier(), testConfig(), events, attempts, zap.NewNop())
}

func TestRecordThinkingStepReturnsEventAndMetrics(t *testing.T) {
	mgr := newTestManager(nil, nil)

	result, err := mgr.RecordThinkingStep(context.Background(), "six_hats", 1, "explore the framing", domain.Impact{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "six_hats", result.Event.Technique)
	assert.Equal(t, 0.3, result.Event.ReversibilityCost)
	assert.False(t, result.EscapeVelocityNeeded)
	assert.Nil(t, result.EarlyWarning)
	assert.Greater(t, result.Metrics.FlexibilityScore, 0.4)
}

func TestRecordThinkingStepRunsMonitoringWithContext(t *testing.T) {
	mgr := newTestManager(nil, nil)

	result, err := mgr.RecordThinkingStep(context.Background(), "six_hats", 1, "light step", domain.Impact{}, testSessionContext())
	require.NoError(t, err)

	require.NotNil(t, result.EarlyWarning)
	assert.Equal(t, domain.ActionContinue, result.EarlyWarning.RecommendedAction)
	assert.Nil(t, result.EscapeRecommendation)
}

func TestRecordThinkingStepGrindsIntoEscapeVelocity(t *testing.T) {
	mgr := newTestManager(nil, nil)

	var result *StepResult
	var err error
	for i := 1; i <= 10; i++ {
		result, err = mgr.RecordThinkingStep(context.Background(), "po", i, "another irreversible commitment", harshImpact(), testSessionContext())
		require.NoError(t, err)
	}

	assert.True(t, result.EscapeVelocityNeeded)
	assert.Less(t, result.Metrics.FlexibilityScore, 0.2)

	var sawEscalation bool
	for _, w := range result.Warnings {
		if strings.Contains(w.Message, EscapeVelocityMessage) {
			sawEscalation = true
			assert.Equal(t, domain.WarningCritical, w.Level)
		}
	}
	assert.True(t, sawEscalation)

	require.NotNil(t, result.EarlyWarning)
	assert.Equal(t, domain.ActionEscape, result.EarlyWarning.RecommendedAction)
	require.NotNil(t, result.EscapeRecommendation)
	// Flexibility is too depleted for anything but the emergency fallback.
	assert.Equal(t, domain.LevelPatternInterruption, result.EscapeRecommendation.Level)
}

func TestRecordThinkingStepSurvivesStoreFailure(t *testing.T) {
	mgr := newTestManager(&memEventStore{fail: true}, nil)

	result, err := mgr.RecordThinkingStep(context.Background(), "six_hats", 1, "persist me", domain.Impact{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, len(mgr.PathMemory().Events))
	assert.NotNil(t, result)
}

func TestRecordThinkingStepWritesThrough(t *testing.T) {
	store := &memEventStore{}
	mgr := newTestManager(store, nil)

	_, err := mgr.RecordThinkingStep(context.Background(), "six_hats", 1, "persist me", domain.Impact{}, nil)
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	assert.Equal(t, "test-session", store.events[0].SessionID)
	assert.Equal(t, "persist me", store.events[0].Decision)
}

func TestExecuteEscapeProtocolRequiresApproval(t *testing.T) {
	mgr := newTestManager(nil, nil)

	_, err := mgr.ExecuteEscapeProtocol(context.Background(), domain.LevelStakeholderReset, false)
	assert.ErrorIs(t, err, ErrApprovalRequired)

	result, err := mgr.ExecuteEscapeProtocol(context.Background(), domain.LevelStakeholderReset, true)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelStakeholderReset, result.Level)
}

func TestExecuteEscapeProtocolValidationLeavesStateUntouched(t *testing.T) {
	mgr := newTestManager(nil, nil)

	_, err := mgr.RecordThinkingStep(context.Background(), "po", 1, "commit hard", harshImpact(), nil)
	require.NoError(t, err)
	before := mgr.PathMemory()
	require.Less(t, before.Metrics.FlexibilityScore, 0.3)

	_, err = mgr.ExecuteEscapeProtocol(context.Background(), domain.LevelStakeholderReset, true)
	assert.ErrorIs(t, err, ErrInsufficientFlexibility)

	after := mgr.PathMemory()
	assert.Equal(t, before.Constraints, after.Constraints)
	assert.Equal(t, before.Metrics.FlexibilityScore, after.Metrics.FlexibilityScore)
}

func TestExecuteEscapeProtocolRemovesWeakestAndOpensOptions(t *testing.T) {
	attempts := &memAttemptStore{}
	mgr := newTestManager(nil, attempts)

	_, err := mgr.RecordThinkingStep(context.Background(), "triz", 1, "anchor one", domain.Impact{
		ReversibilityCost:  floatPtr(0.3),
		ConstraintsCreated: []string{"weak anchor"},
	}, nil)
	require.NoError(t, err)
	_, err = mgr.RecordThinkingStep(context.Background(), "triz", 2, "anchor two", domain.Impact{
		ReversibilityCost:  floatPtr(0.6),
		ConstraintsCreated: []string{"strong anchor"},
	}, nil)
	require.NoError(t, err)

	result, err := mgr.ExecuteEscapeProtocol(context.Background(), domain.LevelPatternInterruption, false)
	require.NoError(t, err)

	// Level 1 dissolves exactly one constraint, the weakest.
	assert.Equal(t, []string{"weak anchor"}, result.ConstraintsRemoved)
	assert.True(t, result.Succeeded)

	mem := mgr.PathMemory()
	require.Len(t, mem.Constraints, 1)
	assert.Equal(t, "strong anchor", mem.Constraints[0].Description)
	assert.NotEmpty(t, mem.AvailableOptions)
	// Structural recompute plus the protocol's pinned minimum gain.
	assert.InDelta(t, 0.867, mem.Metrics.FlexibilityScore, 1e-6)

	require.Len(t, attempts.attempts, 1)
	assert.Equal(t, "test-session", attempts.attempts[0].SessionID)
}

func TestReplayRecomputesMetrics(t *testing.T) {
	mgr := newTestManager(nil, nil)

	mgr.Replay([]domain.PathEvent{
		eventWith("test-session", "po", 1, 0.9, 0.9),
		eventWith("test-session", "po", 2, 0.9, 0.9),
	})

	mem := mgr.PathMemory()
	assert.Len(t, mem.Events, 2)
	// Hard-to-reverse replayed decisions still leave constraints behind.
	assert.Len(t, mem.Constraints, 2)
	assert.Less(t, mem.Metrics.FlexibilityScore, 0.5)
}

func TestGenerateOptionsThroughManager(t *testing.T) {
	mgr := newTestManager(nil, nil)
	_, err := mgr.RecordThinkingStep(context.Background(), "six_hats", 1, "open the problem", domain.Impact{}, nil)
	require.NoError(t, err)

	result := mgr.GenerateOptions(domain.OptionRequest{TargetCount: 4})
	assert.Len(t, result.Options, 4)
	assert.Len(t, result.Evaluations, 4)
}

func TestShouldGenerateOptionsFollowsMetrics(t *testing.T) {
	mgr := newTestManager(nil, nil)
	assert.False(t, mgr.ShouldGenerateOptions())

	for i := 1; i <= 5; i++ {
		_, err := mgr.RecordThinkingStep(context.Background(), "po", i, "commit", harshImpact(), nil)
		require.NoError(t, err)
	}
	assert.True(t, mgr.ShouldGenerateOptions())
}

func TestStatusSummarizesSession(t *testing.T) {
	mgr := newTestManager(nil, nil)

	status := mgr.Status()
	assert.Contains(t, status, "Session test-session: 0 events")
	assert.Contains(t, status, "healthy")

	for i := 1; i <= 10; i++ {
		_, err := mgr.RecordThinkingStep(context.Background(), "po", i, "commit", harshImpact(), nil)
		require.NoError(t, err)
	}
	status = mgr.Status()
	assert.Contains(t, status, "critical - escape recommended")
}

func TestManagerCatalogs(t *testing.T) {
	mgr := newTestManager(nil, nil)

	assert.Len(t, mgr.AvailableProtocols(), 5)
	assert.Len(t, mgr.AvailableStrategies(), 8)
	assert.Equal(t, "test-session", mgr.SessionID())
}
