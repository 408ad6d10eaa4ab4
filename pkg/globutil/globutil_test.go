package globutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_MatchesDoubleStarAcrossSeparators(t *testing.T) {
	match, err := Compile("vendor/**/*.go")
	require.NoError(t, err)
	assert.True(t, match("vendor/pkg/sub/file.go"))
	assert.False(t, match("internal/file.go"))
}

func TestCompile_TrailingSlashMeansEverythingUnder(t *testing.T) {
	match, err := Compile("vendor/")
	require.NoError(t, err)
	assert.True(t, match("vendor/anything/deep.go"))
	assert.False(t, match("vendornot/file.go"))
}

func TestCompile_RejectsMalformedPattern(t *testing.T) {
	_, err := Compile("[unterminated")
	assert.Error(t, err)
}

func TestValidate_AcceptsWellFormedGlob(t *testing.T) {
	assert.NoError(t, Validate("**/*.pem"))
}

func TestValidate_RejectsMalformedGlob(t *testing.T) {
	assert.Error(t, Validate("[unterminated"))
}

func TestMatch_NormalizesLeadingDotSlash(t *testing.T) {
	ok, err := Match("testdata/*.txt", "./testdata/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}
