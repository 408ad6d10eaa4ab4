package rule

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRuleTOML = `
[[rule]]
id = "aws-access-key-id"
name = "AWS Access Key ID"
severity = "high"
pattern = '''AKIA([0-9A-Z]{16})'''
keywords = ["akia"]
capture = 1

  [rule.validate]
  length = 16
  charset = "0-9A-Z"

  [rule.paths]
  exclude = ["**/*.md"]

  [rule.allow]
  values = ["IOSFODNN7EXAMPLE"]
`

func TestLoader_LoadRules(t *testing.T) {
	l := NewLoader()
	rules, err := l.LoadRules([]byte(sampleRuleTOML))
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, "aws-access-key-id", r.ID)
	assert.Equal(t, "high", string(r.Severity))
	assert.Equal(t, 1, r.Capture)
	require.NotNil(t, r.Validate)
	assert.Equal(t, 16, r.Validate.Length)
	require.NotNil(t, r.Paths)
	assert.Equal(t, []string{"**/*.md"}, r.Paths.Exclude)
	require.NotNil(t, r.Allow)
	assert.Equal(t, []string{"IOSFODNN7EXAMPLE"}, r.Allow.Values)
}

func TestLoader_RejectsUnknownFields(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadRules([]byte(`
[[rule]]
id = "x"
name = "X"
severity = "high"
pattern = '''x(y)'''
bogus_field = "oops"
`))
	assert.Error(t, err)
}

func TestLoader_LoadBuiltinRules(t *testing.T) {
	l := NewLoader()
	rules, err := l.LoadBuiltinRules()
	require.NoError(t, err)
	assert.NotEmpty(t, rules, "the embedded rules/ directory should ship at least one rule")

	seen := make(map[string]bool)
	for _, r := range rules {
		assert.False(t, seen[r.ID], "duplicate builtin rule id %q", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Pattern)
	}
}

func TestLoader_LoadBuiltinRules_FromCustomFS(t *testing.T) {
	fsys := fstest.MapFS{
		"rules/custom.toml": &fstest.MapFile{Data: []byte(sampleRuleTOML)},
	}
	l := NewLoaderWithFS(fsys)
	rules, err := l.LoadBuiltinRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "aws-access-key-id", rules[0].ID)
}
