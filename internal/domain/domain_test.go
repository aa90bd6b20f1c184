package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidConstraintType(t *testing.T) {
	for _, ct := range ConstraintTypes {
		assert.True(t, ValidConstraintType(string(ct)))
	}
	assert.False(t, ValidConstraintType("legal"))
	assert.False(t, ValidConstraintType(""))
}

func TestValidOptionCategory(t *testing.T) {
	for _, c := range []OptionCategory{
		CategoryStructural, CategoryTemporal, CategoryConceptual,
		CategoryRelational, CategoryResource, CategoryCapability,
	} {
		assert.True(t, ValidOptionCategory(string(c)))
	}
	assert.False(t, ValidOptionCategory("spiritual"))
}

func TestResourceInventoryAvailable(t *testing.T) {
	full := ResourceInventory{
		Time:                  1,
		Attention:             1,
		SocialCapital:         1,
		TechnicalCapacity:     1,
		Financial:             1,
		OrganizationalSupport: 1,
	}
	assert.InDelta(t, 1.0, full.Available(), 1e-9)

	assert.Equal(t, 0.0, ResourceInventory{}.Available())

	timeOnly := ResourceInventory{Time: 1}
	assert.InDelta(t, 0.2, timeOnly.Available(), 1e-9)
	orgOnly := ResourceInventory{OrganizationalSupport: 1}
	assert.InDelta(t, 0.1, orgOnly.Available(), 1e-9)
}

func TestNearestBarrier(t *testing.T) {
	assert.Equal(t, 1.0, FlexibilityMetrics{}.NearestBarrier())

	m := FlexibilityMetrics{BarrierProximity: []BarrierProximity{
		{Barrier: BarrierIrreversibilityLockIn, Distance: 0.7},
		{Barrier: BarrierCognitiveLockIn, Distance: 0.2},
		{Barrier: BarrierResourceDepletion, Distance: 0.5},
	}}
	assert.Equal(t, 0.2, m.NearestBarrier())
}

func TestWarningLevelSeverity(t *testing.T) {
	assert.Greater(t, WarningCritical.Severity(), WarningHigh.Severity())
	assert.Greater(t, WarningHigh.Severity(), WarningMedium.Severity())
	assert.Greater(t, WarningMedium.Severity(), WarningLow.Severity())
	assert.Equal(t, 0, WarningLevel("unknown").Severity())
}

func TestRequiresApproval(t *testing.T) {
	assert.False(t, EscapeProtocol{Level: LevelPatternInterruption}.RequiresApproval())
	assert.False(t, EscapeProtocol{Level: LevelResourceReallocation}.RequiresApproval())
	assert.True(t, EscapeProtocol{Level: LevelStakeholderReset}.RequiresApproval())
	assert.True(t, EscapeProtocol{Level: LevelTechnicalRefactoring}.RequiresApproval())
	assert.True(t, EscapeProtocol{Level: LevelStrategicPivot}.RequiresApproval())
}

func TestTotalConstraintStrength(t *testing.T) {
	mem := PathMemory{Constraints: []Constraint{
		{Type: ConstraintTechnical, Strength: 0.4},
		{Type: ConstraintSocial, Strength: 0.25},
	}}
	assert.InDelta(t, 0.65, mem.TotalConstraintStrength(), 1e-9)
	assert.Equal(t, 0.0, (&PathMemory{}).TotalConstraintStrength())
}

func TestDistinctTechniques(t *testing.T) {
	mem := PathMemory{Events: []PathEvent{
		{Technique: "six_hats"},
		{Technique: "po"},
		{Technique: "six_hats"},
		{Technique: "scamper"},
	}}
	assert.Equal(t, 3, mem.DistinctTechniques())
	assert.Equal(t, 0, (&PathMemory{}).DistinctTechniques())
}
