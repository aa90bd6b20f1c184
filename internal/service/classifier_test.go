package service

import (
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyConstraintByKeywords(t *testing.T) {
	c := NewHeuristicClassifier()

	cases := []struct {
		description string
		want        domain.ConstraintType
	}{
		{"locked into the legacy database architecture", domain.ConstraintTechnical},
		{"stakeholder trust depends on shipping this", domain.ConstraintSocial},
		{"the budget for this quarter is spent", domain.ConstraintFinancial},
		{"compliance approval gates every release", domain.ConstraintOrganizational},
		{"no capacity left before the deadline", domain.ConstraintResource},
		{"the framing assumption biases our perspective", domain.ConstraintCognitive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.ClassifyConstraint(tc.description), tc.description)
	}
}

func TestClassifyConstraintFallsBackToCognitive(t *testing.T) {
	c := NewHeuristicClassifier()
	assert.Equal(t, domain.ConstraintCognitive, c.ClassifyConstraint("something entirely unrelated"))
	assert.Equal(t, domain.ConstraintCognitive, c.ClassifyConstraint(""))
}

func TestHighStakes(t *testing.T) {
	c := NewHeuristicClassifier()

	assert.True(t, c.HighStakes("sign the permanent vendor contract"))
	assert.True(t, c.HighStakes("kick off the database migration"))
	assert.False(t, c.HighStakes("sketch three alternatives on the whiteboard"))
}
