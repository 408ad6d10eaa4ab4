package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity_AcceptsKnownValues(t *testing.T) {
	for _, s := range []string{"critical", "high", "medium", "low"} {
		got, err := ParseSeverity(s)
		require.NoError(t, err)
		assert.Equal(t, Severity(s), got)
	}
}

func TestParseSeverity_RejectsUnknownValue(t *testing.T) {
	_, err := ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestSeverity_Blocks(t *testing.T) {
	assert.True(t, SeverityCritical.Blocks(false))
	assert.True(t, SeverityHigh.Blocks(false))
	assert.True(t, SeverityMedium.Blocks(false))
	assert.False(t, SeverityLow.Blocks(false))
	assert.True(t, SeverityLow.Blocks(true))
}
