package rule

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/nosecrets/nosecrets/pkg/types"
)

// Loader reads detection rules from TOML rule files, either user-supplied
// or the built-in set embedded at build time.
type Loader struct {
	fs fs.FS
}

// NewLoader returns a Loader over the embedded built-in rule files.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS returns a Loader over an arbitrary filesystem, primarily
// for tests that supply rule files via fstest.MapFS.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// tomlRuleFile is the top-level shape of a rule file: zero or more
// [[rule]] tables.
type tomlRuleFile struct {
	Rule []tomlRule `toml:"rule"`
}

type tomlRule struct {
	ID       string          `toml:"id"`
	Name     string          `toml:"name"`
	Severity string          `toml:"severity"`
	Pattern  string          `toml:"pattern"`
	Keywords []string        `toml:"keywords"`
	Capture  int             `toml:"capture"`
	Validate *tomlValidate   `toml:"validate"`
	Paths    *tomlRulePaths  `toml:"paths"`
	Allow    *tomlRuleAllow  `toml:"allow"`
}

type tomlValidate struct {
	Prefix    []string `toml:"prefix"`
	Charset   string   `toml:"charset"`
	Length    int      `toml:"length"`
	MinLength int      `toml:"min_length"`
	MaxLength int      `toml:"max_length"`
}

type tomlRulePaths struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type tomlRuleAllow struct {
	Patterns []string `toml:"patterns"`
	Values   []string `toml:"values"`
}

// LoadRules parses a single TOML rule file's bytes into Rule values. Unknown
// fields are rejected so a typo in a rule file fails loudly instead of
// silently dropping a constraint.
func (l *Loader) LoadRules(data []byte) ([]*types.Rule, error) {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var file tomlRuleFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}

	rules := make([]*types.Rule, 0, len(file.Rule))
	for _, tr := range file.Rule {
		rules = append(rules, convertTOMLRule(tr))
	}
	return rules, nil
}

// LoadBuiltinRules loads every *.toml file under rules/ in the loader's
// filesystem.
func (l *Loader) LoadBuiltinRules() ([]*types.Rule, error) {
	var rules []*types.Rule

	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		parsed, err := l.LoadRules(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		rules = append(rules, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func convertTOMLRule(tr tomlRule) *types.Rule {
	r := &types.Rule{
		ID:       tr.ID,
		Name:     tr.Name,
		Severity: types.Severity(tr.Severity),
		Pattern:  tr.Pattern,
		Keywords: tr.Keywords,
		Capture:  tr.Capture,
	}
	if tr.Validate != nil {
		r.Validate = &types.RuleValidate{
			Prefix:    tr.Validate.Prefix,
			Charset:   tr.Validate.Charset,
			Length:    tr.Validate.Length,
			MinLength: tr.Validate.MinLength,
			MaxLength: tr.Validate.MaxLength,
		}
	}
	if tr.Paths != nil {
		r.Paths = &types.RulePaths{Include: tr.Paths.Include, Exclude: tr.Paths.Exclude}
	}
	if tr.Allow != nil {
		r.Allow = &types.RuleAllow{Patterns: tr.Allow.Patterns, Values: tr.Allow.Values}
	}
	return r
}
