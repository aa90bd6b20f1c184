package service

import (
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPathMemory() *PathMemoryService {
	return NewPathMemoryService("test-session", NewHeuristicClassifier(), testConfig(), zap.NewNop())
}

func TestRecordEventAppliesDefaults(t *testing.T) {
	pm := newTestPathMemory()

	event := pm.RecordEvent("six_hats", 1, "explore the problem", domain.Impact{})

	assert.Equal(t, 0.3, event.ReversibilityCost)
	assert.Equal(t, 0.3, event.CommitmentLevel)
	assert.Equal(t, "test-session", event.SessionID)
	assert.NotEqual(t, "", event.ID.String())
	assert.Equal(t, 1, pm.EventCount())
}

func TestRecordEventHistoryIsAppendOnly(t *testing.T) {
	pm := newTestPathMemory()

	for i := 1; i <= 5; i++ {
		pm.RecordEvent("scamper", i, "step decision", domain.Impact{})
	}

	snap := pm.Snapshot()
	require.Len(t, snap.Events, 5)
	for i, e := range snap.Events {
		assert.Equal(t, i+1, e.Step)
	}

	// Another write extends history without touching prior entries.
	first := snap.Events[0]
	pm.RecordEvent("scamper", 6, "one more", domain.Impact{})
	assert.Equal(t, first, pm.Snapshot().Events[0])
	assert.Equal(t, 6, pm.EventCount())
}

func TestRecordEventCreatesImplicitConstraint(t *testing.T) {
	pm := newTestPathMemory()

	pm.RecordEvent("po", 1, "sign the vendor contract", domain.Impact{
		ReversibilityCost: floatPtr(0.8),
	})

	snap := pm.Snapshot()
	require.Len(t, snap.Constraints, 1)
	assert.Equal(t, "sign the vendor contract", snap.Constraints[0].Description)
	assert.Equal(t, 0.8, snap.Constraints[0].Strength)
}

func TestRecordEventNoImplicitConstraintBelowThreshold(t *testing.T) {
	pm := newTestPathMemory()

	pm.RecordEvent("po", 1, "sketch an idea", domain.Impact{
		ReversibilityCost: floatPtr(0.7),
	})

	assert.Empty(t, pm.Snapshot().Constraints)
}

func TestRecordEventNamedConstraintsAreClassified(t *testing.T) {
	pm := newTestPathMemory()

	pm.RecordEvent("triz", 1, "pick the platform", domain.Impact{
		ReversibilityCost:  floatPtr(0.6),
		ConstraintsCreated: []string{"locked into the legacy database architecture"},
	})

	snap := pm.Snapshot()
	require.Len(t, snap.Constraints, 1)
	assert.Equal(t, domain.ConstraintTechnical, snap.Constraints[0].Type)
	assert.Equal(t, 0.6, snap.Constraints[0].Strength)
}

func TestOptionsOpenAndCloseWithoutDuplicates(t *testing.T) {
	pm := newTestPathMemory()

	pm.RecordEvent("scamper", 1, "open options", domain.Impact{
		OptionsOpened: []string{"path-a", "path-b", "path-a"},
	})
	pm.RecordEvent("scamper", 2, "close one", domain.Impact{
		OptionsClosed: []string{"path-a", "path-missing"},
	})

	assert.Equal(t, []string{"path-b"}, pm.Snapshot().AvailableOptions)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	pm := newTestPathMemory()
	pm.RecordEvent("six_hats", 1, "decide", domain.Impact{
		OptionsOpened:      []string{"alt"},
		ConstraintsCreated: []string{"team expectation set"},
	})

	first := pm.Snapshot()
	first.Events[0].Decision = "tampered"
	first.Constraints[0].Strength = 0
	first.AvailableOptions[0] = "tampered"

	second := pm.Snapshot()
	assert.Equal(t, "decide", second.Events[0].Decision)
	assert.NotZero(t, second.Constraints[0].Strength)
	assert.Equal(t, []string{"alt"}, second.AvailableOptions)
}

func TestSnapshotIdempotentWithoutWrites(t *testing.T) {
	pm := newTestPathMemory()
	pm.RecordEvent("po", 1, "commit to the launch", harshImpact())
	pm.SetMetrics(domain.FlexibilityMetrics{FlexibilityScore: 0.5})

	assert.Equal(t, pm.Snapshot(), pm.Snapshot())
}

func TestReplayRebuildsDerivedState(t *testing.T) {
	pm := newTestPathMemory()
	original := newTestPathMemory()

	original.RecordEvent("six_hats", 1, "open paths", domain.Impact{OptionsOpened: []string{"a", "b"}})
	original.RecordEvent("po", 2, "sign the contract", domain.Impact{ReversibilityCost: floatPtr(0.9)})

	for _, e := range original.Snapshot().Events {
		pm.Replay(e)
	}

	snap := pm.Snapshot()
	replayed := original.Snapshot()
	assert.Equal(t, replayed.Events, snap.Events)
	assert.Equal(t, replayed.AvailableOptions, snap.AvailableOptions)
	require.Len(t, snap.Constraints, 1)
	assert.Equal(t, "sign the contract", snap.Constraints[0].Description)
}

func TestEscapeRoutesRankedByFeasibility(t *testing.T) {
	pm := newTestPathMemory()
	pm.RecordEvent("triz", 1, "lock in", domain.Impact{
		ReversibilityCost:  floatPtr(0.9),
		ConstraintsCreated: []string{"legacy system dependency"},
	})
	pm.RecordEvent("triz", 2, "promise", domain.Impact{
		ReversibilityCost:  floatPtr(0.4),
		ConstraintsCreated: []string{"stakeholder trust at stake"},
	})

	routes := pm.EscapeRoutes()
	require.Len(t, routes, 2)
	// The weaker social constraint yields the more feasible route.
	assert.Equal(t, domain.ConstraintSocial, routes[0].Addresses)
	assert.Equal(t, "stakeholder_renegotiation", routes[0].Name)
	assert.InDelta(t, 0.6, routes[0].Feasibility, 1e-9)
	assert.Equal(t, domain.ConstraintTechnical, routes[1].Addresses)
	assert.InDelta(t, 0.1, routes[1].Feasibility, 1e-9)
}

func TestApplyEscapeRemovesOnlyListedConstraints(t *testing.T) {
	pm := newTestPathMemory()
	pm.RecordEvent("triz", 1, "a", domain.Impact{ReversibilityCost: floatPtr(0.5), ConstraintsCreated: []string{"keep me"}})
	pm.RecordEvent("triz", 2, "b", domain.Impact{ReversibilityCost: floatPtr(0.5), ConstraintsCreated: []string{"remove me"}})
	eventsBefore := pm.EventCount()

	pm.ApplyEscape(&domain.EscapeAttemptResult{
		Level:              domain.LevelPatternInterruption,
		ConstraintsRemoved: []string{"remove me"},
		OptionsCreated:     []string{"fresh option"},
	})

	snap := pm.Snapshot()
	require.Len(t, snap.Constraints, 1)
	assert.Equal(t, "keep me", snap.Constraints[0].Description)
	assert.Contains(t, snap.AvailableOptions, "fresh option")
	// Escape never rewrites history.
	assert.Equal(t, eventsBefore, pm.EventCount())
}

func TestWeakestConstraints(t *testing.T) {
	pm := newTestPathMemory()
	pm.RecordEvent("triz", 1, "x", domain.Impact{ReversibilityCost: floatPtr(0.9), ConstraintsCreated: []string{"strong"}})
	pm.RecordEvent("triz", 2, "y", domain.Impact{ReversibilityCost: floatPtr(0.2), ConstraintsCreated: []string{"weak"}})
	pm.RecordEvent("triz", 3, "z", domain.Impact{ReversibilityCost: floatPtr(0.5), ConstraintsCreated: []string{"medium"}})

	weakest := pm.WeakestConstraints(2)
	require.Len(t, weakest, 2)
	assert.Equal(t, "weak", weakest[0].Description)
	assert.Equal(t, "medium", weakest[1].Description)
}
