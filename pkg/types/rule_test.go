package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_MinimalFields(t *testing.T) {
	rule := Rule{
		ID:       "nosecrets.test.1",
		Name:     "Test Rule",
		Severity: SeverityHigh,
		Pattern:  `test_([a-z]+)`,
	}

	assert.Equal(t, "nosecrets.test.1", rule.ID)
	assert.Equal(t, SeverityHigh, rule.Severity)
	assert.Nil(t, rule.Validate)
	assert.Nil(t, rule.Paths)
	assert.Nil(t, rule.Allow)
}

func TestRule_EffectiveCapture(t *testing.T) {
	assert.Equal(t, 1, (&Rule{}).EffectiveCapture())
	assert.Equal(t, 1, (&Rule{Capture: 1}).EffectiveCapture())
	assert.Equal(t, 2, (&Rule{Capture: 2}).EffectiveCapture())
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("critical")
	assert.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	_, err = ParseSeverity("bogus")
	assert.Error(t, err)
}
