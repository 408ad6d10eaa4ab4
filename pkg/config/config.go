// Package config loads .nosecrets.toml and compiles it into matchers the
// Suppressor can apply cheaply per candidate.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/nosecrets/nosecrets/pkg/globutil"
	"github.com/nosecrets/nosecrets/pkg/nserr"
	"github.com/nosecrets/nosecrets/pkg/types"
)

type tomlConfig struct {
	Ignore struct {
		Paths []string `toml:"paths"`
	} `toml:"ignore"`
	Allow struct {
		Patterns []string `toml:"patterns"`
		Values   []string `toml:"values"`
	} `toml:"allow"`
	LowIsBlocking bool `toml:"low_is_blocking"`
}

// Load reads and parses path. A missing file is not an error: it is treated
// as an all-empty Configuration, per the external-interfaces contract.
func Load(path string) (*types.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.Configuration{}, nil
		}
		return nil, nserr.InvalidConfig(fmt.Errorf("read %s: %w", path, err))
	}
	return Parse(data)
}

// Parse decodes TOML config bytes into a Configuration.
func Parse(data []byte) (*types.Configuration, error) {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var tc tomlConfig
	if err := dec.Decode(&tc); err != nil {
		return nil, nserr.InvalidConfig(fmt.Errorf("parse config: %w", err))
	}

	return &types.Configuration{
		IgnorePaths:   tc.Ignore.Paths,
		AllowPatterns: tc.Allow.Patterns,
		AllowValues:   tc.Allow.Values,
		LowIsBlocking: tc.LowIsBlocking,
	}, nil
}

// Compiled is a Configuration with its globs and regexes built once, ready
// for repeated per-candidate checks.
type Compiled struct {
	Config         *types.Configuration
	IgnorePathGlob func(path string) bool
	AllowRegex     []*regexp.Regexp
}

// Compile builds a Compiled from cfg, failing with InvalidConfig on any
// malformed glob or regex.
func Compile(cfg *types.Configuration) (*Compiled, error) {
	c := &Compiled{Config: cfg}

	if len(cfg.IgnorePaths) > 0 {
		matchers := make([]func(string) bool, 0, len(cfg.IgnorePaths))
		for _, g := range cfg.IgnorePaths {
			m, err := globutil.Compile(g)
			if err != nil {
				return nil, nserr.InvalidConfig(fmt.Errorf("malformed ignore glob %q: %w", g, err))
			}
			matchers = append(matchers, m)
		}
		c.IgnorePathGlob = func(path string) bool {
			for _, m := range matchers {
				if m(path) {
					return true
				}
			}
			return false
		}
	}

	for _, p := range cfg.AllowPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, nserr.InvalidConfig(fmt.Errorf("malformed allow pattern %q: %w", p, err))
		}
		c.AllowRegex = append(c.AllowRegex, re)
	}

	return c, nil
}

// IgnoresPath reports whether path matches the global [ignore].paths list.
func (c *Compiled) IgnoresPath(path string) bool {
	return c.IgnorePathGlob != nil && c.IgnorePathGlob(path)
}

// AllowsValue reports whether capture matches the global [allow] list, by
// regex or literal value.
func (c *Compiled) AllowsValue(capture []byte) bool {
	s := string(capture)
	for _, v := range c.Config.AllowValues {
		if v == s {
			return true
		}
	}
	for _, re := range c.AllowRegex {
		if re.Match(capture) {
			return true
		}
	}
	return false
}
