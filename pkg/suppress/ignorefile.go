package suppress

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nosecrets/nosecrets/pkg/globutil"
	"github.com/nosecrets/nosecrets/pkg/types"
)

var ignoreLinePattern = regexp.MustCompile(`^nsi_([0-9a-f]{12,64})(?::(.+))?$`)

// IgnoreFile is a parsed .nosecretsignore: fingerprint prefixes, each
// optionally scoped to a path glob.
type IgnoreFile struct {
	Entries []types.IgnoreEntry
}

// ParseIgnoreFile parses .nosecretsignore content. Malformed lines are
// reported as warnings (DiagnosticIgnoreParseWarning) and skipped; they do
// not abort parsing, per the external-interfaces contract.
func ParseIgnoreFile(data []byte) (*IgnoreFile, []types.Diagnostic) {
	f := &IgnoreFile{}
	var diags []types.Diagnostic

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := ignoreLinePattern.FindStringSubmatch(line)
		if m == nil {
			diags = append(diags, types.Diagnostic{
				Kind:    types.DiagnosticIgnoreParseWarning,
				Message: fmt.Sprintf("line %d: malformed entry %q", lineNo, line),
			})
			continue
		}

		f.Entries = append(f.Entries, types.IgnoreEntry{
			FingerprintPrefix: m[1],
			PathGlob:          m[2],
		})
	}

	return f, diags
}

// Suppresses reports whether fingerprint (the full "nsi_<hex>" string) and
// path are covered by any entry. Matching is prefix-length tolerant: an
// entry's hex need only be a prefix of the candidate's hex, down to
// minFingerprintHex characters, so a 12-char short form and a future
// longer-hash form both work.
func (f *IgnoreFile) Suppresses(fingerprint, path string) bool {
	hex := strings.TrimPrefix(fingerprint, "nsi_")
	for _, e := range f.Entries {
		if !strings.HasPrefix(hex, e.FingerprintPrefix) && !strings.HasPrefix(e.FingerprintPrefix, hex) {
			continue
		}
		if e.PathGlob == "" {
			return true
		}
		if ok, _ := globutil.Match(e.PathGlob, path); ok {
			return true
		}
	}
	return false
}
