package suppress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nosecrets/nosecrets/pkg/config"
	"github.com/nosecrets/nosecrets/pkg/fingerprint"
	"github.com/nosecrets/nosecrets/pkg/rule"
	"github.com/nosecrets/nosecrets/pkg/types"
)

func newSuppressor(t *testing.T, cfg *types.Configuration, ignoreData []byte) *Suppressor {
	t.Helper()
	if cfg == nil {
		cfg = &types.Configuration{}
	}
	compiled, err := config.Compile(cfg)
	require.NoError(t, err)

	ignore, _ := ParseIgnoreFile(ignoreData)
	return New(compiled, ignore)
}

func compileOne(t *testing.T, r *types.Rule) *rule.CompiledRule {
	t.Helper()
	set, _, err := rule.Compile([]*types.Rule{r})
	require.NoError(t, err)
	return set.ByID(r.ID)
}

func baseRule() *types.Rule {
	return &types.Rule{ID: "r1", Name: "Test", Severity: types.SeverityHigh, Pattern: `AKIA([0-9A-Z]{16})`, Capture: 1}
}

func TestSuppress_NoSuppressionSurvives(t *testing.T) {
	s := newSuppressor(t, nil, nil)
	cr := compileOne(t, baseRule())
	candidate := types.Candidate{Path: "a.go", RuleID: "r1", Start: 0, End: 4, Capture: []byte("secret")}

	assert.False(t, s.Suppress(cr, candidate, []byte("secret")))
}

func TestSuppress_PerRulePathInclude(t *testing.T) {
	r := baseRule()
	r.Paths = &types.RulePaths{Include: []string{"src/**"}}
	cr := compileOne(t, r)
	s := newSuppressor(t, nil, nil)

	c1 := types.Candidate{Path: "other/f.go", Capture: []byte("x")}
	assert.True(t, s.Suppress(cr, c1, []byte("x")))

	c2 := types.Candidate{Path: "src/f.go", Capture: []byte("x")}
	assert.False(t, s.Suppress(cr, c2, []byte("x")))
}

func TestSuppress_PerRulePathExclude(t *testing.T) {
	r := baseRule()
	r.Paths = &types.RulePaths{Exclude: []string{"**/*_test.go"}}
	cr := compileOne(t, r)
	s := newSuppressor(t, nil, nil)

	c := types.Candidate{Path: "pkg/foo_test.go", Capture: []byte("x")}
	assert.True(t, s.Suppress(cr, c, []byte("x")))
}

func TestSuppress_GlobalPathIgnore(t *testing.T) {
	cr := compileOne(t, baseRule())
	s := newSuppressor(t, &types.Configuration{IgnorePaths: []string{"vendor/**"}}, nil)

	c := types.Candidate{Path: "vendor/lib/f.go", Capture: []byte("x")}
	assert.True(t, s.Suppress(cr, c, []byte("x")))
}

func TestSuppress_PerRuleAllow(t *testing.T) {
	r := baseRule()
	r.Allow = &types.RuleAllow{Values: []string{"IOSFODNN7EXAMPLE"}}
	cr := compileOne(t, r)
	s := newSuppressor(t, nil, nil)

	c := types.Candidate{Path: "f.go", Capture: []byte("IOSFODNN7EXAMPLE")}
	assert.True(t, s.Suppress(cr, c, []byte("IOSFODNN7EXAMPLE")))
}

func TestSuppress_GlobalAllow(t *testing.T) {
	cr := compileOne(t, baseRule())
	s := newSuppressor(t, &types.Configuration{AllowValues: []string{"IOSFODNN7EXAMPLE"}}, nil)

	c := types.Candidate{Path: "f.go", Capture: []byte("IOSFODNN7EXAMPLE")}
	assert.True(t, s.Suppress(cr, c, []byte("IOSFODNN7EXAMPLE")))
}

func TestSuppress_FingerprintIgnoreFile(t *testing.T) {
	cr := compileOne(t, baseRule())
	capture := []byte("IOSFODNN7EXAMPLE")
	fp := fingerprint.Compute(capture)
	hex := fp[len("nsi_"):]

	s := newSuppressor(t, nil, []byte("nsi_"+hex+"\n"))
	c := types.Candidate{Path: "f.go", Capture: capture}
	assert.True(t, s.Suppress(cr, c, capture))
}

func TestSuppress_FingerprintIgnoreFile_PathScoped(t *testing.T) {
	cr := compileOne(t, baseRule())
	capture := []byte("IOSFODNN7EXAMPLE")
	fp := fingerprint.Compute(capture)
	hex := fp[len("nsi_"):]

	s := newSuppressor(t, nil, []byte("nsi_"+hex+":src/**\n"))

	c1 := types.Candidate{Path: "other/f.go", Capture: capture}
	assert.False(t, s.Suppress(cr, c1, capture))

	c2 := types.Candidate{Path: "src/f.go", Capture: capture}
	assert.True(t, s.Suppress(cr, c2, capture))
}

func TestSuppress_InlineDirectiveSameLine(t *testing.T) {
	cr := compileOne(t, baseRule())
	s := newSuppressor(t, nil, nil)
	content := []byte("key := \"secret\" // @nosecrets-ignore\n")

	c := types.Candidate{Path: "f.go", Start: 8, Capture: []byte("secret")}
	assert.True(t, s.Suppress(cr, c, content))
}

func TestSuppress_InlineDirectivePrecedingLine(t *testing.T) {
	cr := compileOne(t, baseRule())
	s := newSuppressor(t, nil, nil)
	content := []byte("// @nsi\nkey := \"secret\"\n")
	start := len("// @nsi\nkey := \"")

	c := types.Candidate{Path: "f.go", Start: start, Capture: []byte("secret")}
	assert.True(t, s.Suppress(cr, c, content))
}

func TestSuppress_NoInlineDirectiveTwoLinesUp(t *testing.T) {
	cr := compileOne(t, baseRule())
	s := newSuppressor(t, nil, nil)
	content := []byte("// @nsi\nfiller\nkey := \"secret\"\n")
	start := len("// @nsi\nfiller\nkey := \"")

	c := types.Candidate{Path: "f.go", Start: start, Capture: []byte("secret")}
	assert.False(t, s.Suppress(cr, c, content))
}

func TestIgnoreFile_MalformedLineWarnsNotFatal(t *testing.T) {
	f, diags := ParseIgnoreFile([]byte("not-a-valid-entry\nnsi_abcdefabcdef\n"))
	require.Len(t, f.Entries, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, types.DiagnosticIgnoreParseWarning, diags[0].Kind)
}

func TestIgnoreFile_PrefixTolerantMatching(t *testing.T) {
	f, _ := ParseIgnoreFile([]byte("nsi_abcdefabcdef\n"))
	assert.True(t, f.Suppresses("nsi_abcdefabcdef", "any/path.go"))
}
