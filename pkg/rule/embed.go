package rule

import "embed"

// builtinRulesFS embeds the shipped detection rules so nosecrets scans
// something useful with zero configuration.
//
//go:embed rules/*.toml
var builtinRulesFS embed.FS
