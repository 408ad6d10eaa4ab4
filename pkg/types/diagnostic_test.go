package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostic_String_WithoutRuleID(t *testing.T) {
	d := Diagnostic{Kind: DiagnosticFileReadError, Path: "a.txt", Message: "permission denied"}
	assert.Equal(t, "file_read_error: a.txt: permission denied", d.String())
}

func TestDiagnostic_String_WithRuleID(t *testing.T) {
	d := Diagnostic{Kind: DiagnosticRuleTimeout, Path: "a.txt", RuleID: "aws-key", Message: "deadline exceeded"}
	assert.Equal(t, "rule_timeout: a.txt (rule aws-key): deadline exceeded", d.String())
}
