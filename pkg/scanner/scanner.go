// Package scanner implements the Scan Orchestrator: it drives a bounded
// worker pool across a set of files, running each through the prefilter,
// matcher, validator and suppressor, then merges, deduplicates and sorts
// the surviving findings.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/nosecrets/nosecrets/pkg/config"
	"github.com/nosecrets/nosecrets/pkg/extract"
	"github.com/nosecrets/nosecrets/pkg/fingerprint"
	"github.com/nosecrets/nosecrets/pkg/gitindex"
	"github.com/nosecrets/nosecrets/pkg/matcher"
	"github.com/nosecrets/nosecrets/pkg/rule"
	"github.com/nosecrets/nosecrets/pkg/suppress"
	"github.com/nosecrets/nosecrets/pkg/types"
	"github.com/nosecrets/nosecrets/pkg/validate"
)

// DefaultMmapThreshold is the file-size cutoff above which a file is
// memory-mapped instead of read into a fresh buffer.
const DefaultMmapThreshold = 4 * 1024 * 1024

// binaryCheckWindow is how much of a file's head is inspected for a NUL byte.
const binaryCheckWindow = 8192

// inputFile is one unit of work: a path and either its already-known
// content (staged mode) or a signal to read it from disk (path mode).
type inputFile struct {
	path    string
	content []byte // non-nil for staged files
}

// Input selects what the orchestrator scans: either a fixed list of staged
// blobs (scan --staged) or a set of filesystem paths already resolved by
// the caller (scan --staged and scan <paths> both funnel through Scan, with
// pkg/walk or pkg/gitindex doing path resolution beforehand).
type Input struct {
	StagedFiles []gitindex.StagedFile
	Paths       []string
}

// Options configures a single Scan call. The incremental scan cache
// (pkg/cache) is deliberately not a field here: it prunes *which files* are
// passed in at all (see cmd/nosecrets's cache filtering), never what the
// orchestrator does with the files it receives.
type Options struct {
	Rules         *rule.CompiledRuleSet
	Config        *config.Compiled
	Ignore        *suppress.IgnoreFile
	MmapThreshold int64 // 0 means DefaultMmapThreshold
	Workers       int   // 0 means GOMAXPROCS
}

// Result is everything a scan produced.
type Result struct {
	Findings    []types.Finding
	Diagnostics []types.Diagnostic
	Stats       types.ScanStats
}

// Scan runs the full pipeline over input and returns every surviving
// Finding, sorted by (path, line, column, rule_id).
func Scan(ctx context.Context, input Input, opts Options) (*Result, error) {
	threshold := opts.MmapThreshold
	if threshold <= 0 {
		threshold = DefaultMmapThreshold
	}

	files := collectInputFiles(input)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu          sync.Mutex
		findings    []types.Finding
		diagnostics []types.Diagnostic
		stats       types.ScanStats
	)

	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Compiled{Config: &types.Configuration{}}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	suppressor := suppress.New(cfg, opts.Ignore)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			fileFindings, fileDiags, scanned, err := scanOneFile(f, threshold, opts, suppressor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				diagnostics = append(diagnostics, types.Diagnostic{
					Kind:    types.DiagnosticFileReadError,
					Path:    f.path,
					Message: err.Error(),
				})
				stats.FilesSkippedError++
				return nil
			}
			if !scanned {
				stats.FilesSkippedBinary++
				return nil
			}
			stats.FilesScanned++
			findings = append(findings, fileFindings...)
			diagnostics = append(diagnostics, fileDiags...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	findings = dedup(findings)
	sortFindings(findings)

	return &Result{Findings: findings, Diagnostics: diagnostics, Stats: stats}, nil
}

func collectInputFiles(input Input) []inputFile {
	files := make([]inputFile, 0, len(input.StagedFiles)+len(input.Paths))
	for _, sf := range input.StagedFiles {
		files = append(files, inputFile{path: sf.Path, content: sf.Content})
	}
	for _, p := range input.Paths {
		files = append(files, inputFile{path: p})
	}
	return files
}

// scanOneFile reads (if needed), extracts, filters and matches one file.
// scanned is false when the file was skipped as binary with no extractable
// text.
func scanOneFile(f inputFile, mmapThreshold int64, opts Options, suppressor *suppress.Suppressor) (findings []types.Finding, diags []types.Diagnostic, scanned bool, err error) {
	content := f.content
	if content == nil {
		content, err = readFile(f.path, mmapThreshold)
		if err != nil {
			return nil, nil, false, err
		}
	}
	if isBinary(content) {
		ext := filepath.Ext(f.path)
		if !extract.Supported(ext) {
			return nil, nil, false, nil
		}
		extracted, extractErr := extract.Text(f.path, content)
		if extractErr != nil || len(extracted) == 0 {
			return nil, nil, false, nil
		}
		for _, piece := range extracted {
			pf, pd := scanContent(f.path, piece.Content, opts, suppressor)
			findings = append(findings, pf...)
			diags = append(diags, pd...)
		}
		return findings, diags, true, nil
	}

	findings, diags = scanContent(f.path, content, opts, suppressor)
	return findings, diags, true, nil
}

// scanContent runs prefilter -> matcher -> validator -> suppressor over a
// single blob of content already known to belong to path.
func scanContent(path string, content []byte, opts Options, suppressor *suppress.Suppressor) ([]types.Finding, []types.Diagnostic) {
	var findings []types.Finding
	var diags []types.Diagnostic

	candidateRules := opts.Rules.Prefilter.Filter(content)
	for _, r := range candidateRules {
		cr := opts.Rules.ByID(r.ID)
		if cr == nil {
			continue
		}

		candidates, err := matcher.Match(cr.Regex, cr.Rule, path, content)
		if err != nil {
			if matcher.TimeoutError(err) {
				diags = append(diags, types.Diagnostic{
					Kind:    types.DiagnosticRuleTimeout,
					Path:    path,
					RuleID:  cr.Rule.ID,
					Message: err.Error(),
				})
				continue
			}
			diags = append(diags, types.Diagnostic{
				Kind:    types.DiagnosticFileReadError,
				Path:    path,
				RuleID:  cr.Rule.ID,
				Message: err.Error(),
			})
			continue
		}

		for _, c := range candidates {
			if !validate.Accept(cr, c.Capture) {
				continue
			}
			if suppressor.Suppress(cr, c, content) {
				continue
			}

			line, column := types.ComputeLineColumn(content, c.Start)
			findings = append(findings, types.Finding{
				RuleID:          cr.Rule.ID,
				Name:            cr.Rule.Name,
				Severity:        cr.Rule.Severity,
				Path:            path,
				Line:            line,
				Column:          column,
				Fingerprint:     fingerprint.Compute(c.Capture),
				RedactedPreview: fingerprint.RedactedPreview(c.Capture),
				RawSecret:       c.Capture,
			})
		}
	}

	return findings, diags
}

// readFile reads path's content, memory-mapping it when its size is at or
// above threshold (0 means DefaultMmapThreshold) instead of buffering it in
// one read call.
func readFile(path string, threshold int64) ([]byte, error) {
	if threshold <= 0 {
		threshold = DefaultMmapThreshold
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Size() < threshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read mmap %s: %w", path, err)
	}
	return buf, nil
}

// isBinary treats a file as binary if its first 8 KiB contains a NUL byte.
func isBinary(content []byte) bool {
	window := content
	if len(window) > binaryCheckWindow {
		window = window[:binaryCheckWindow]
	}
	return bytes.IndexByte(window, 0) != -1
}

// dedup keys findings by (rule_id, path, fingerprint, line), keeping the
// first occurrence in input order. Duplicates across different paths are
// retained.
func dedup(findings []types.Finding) []types.Finding {
	type key struct {
		ruleID      string
		path        string
		fingerprint string
		line        int
	}
	seen := make(map[key]bool, len(findings))
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		k := key{f.RuleID, f.Path, f.Fingerprint, f.Line}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// sortFindings imposes the final deterministic ordering.
func sortFindings(findings []types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}
