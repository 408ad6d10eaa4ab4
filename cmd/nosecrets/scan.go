package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nosecrets/nosecrets/pkg/cache"
	"github.com/nosecrets/nosecrets/pkg/config"
	"github.com/nosecrets/nosecrets/pkg/gitindex"
	"github.com/nosecrets/nosecrets/pkg/nserr"
	"github.com/nosecrets/nosecrets/pkg/rule"
	"github.com/nosecrets/nosecrets/pkg/scanner"
	"github.com/nosecrets/nosecrets/pkg/suppress"
	"github.com/nosecrets/nosecrets/pkg/types"
	"github.com/nosecrets/nosecrets/pkg/walk"
)

const (
	defaultConfigPath = ".nosecrets.toml"
	defaultIgnorePath = ".nosecretsignore"
)

var (
	scanStaged       bool
	scanInteractive  bool
	scanRulesPath    string
	scanFormat       string
	scanNoColor      bool
	scanCachePath    string
	scanIncludeRules string
	scanExcludeRules string
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan files or staged git content for secrets",
	Long: `Scan scans a set of files, or (with --staged) the content currently staged
in the git index, reporting every detected secret that survives suppression.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanStaged, "staged", false, "scan content staged in the git index instead of the working tree")
	scanCmd.Flags().BoolVar(&scanInteractive, "interactive", false, "prompt to add an ignore entry for each surviving finding")
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "path to a custom TOML rule file (default: builtin rules)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "output format: human, json")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable colored human output")
	scanCmd.Flags().StringVar(&scanCachePath, "cache", "", "path to an incremental scan cache (staged mode only)")
	scanCmd.Flags().StringVar(&scanIncludeRules, "include-rules", "", "comma-separated regexes; only rule IDs matching one are used")
	scanCmd.Flags().StringVar(&scanExcludeRules, "exclude-rules", "", "comma-separated regexes; rule IDs matching one are dropped")
}

func runScan(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(scanRulesPath)
	if err != nil {
		return err
	}

	rules, err = rule.Filter(rules, rule.FilterConfig{
		Include: rule.ParsePatterns(scanIncludeRules),
		Exclude: rule.ParsePatterns(scanExcludeRules),
	})
	if err != nil {
		return nserr.InvalidConfig(fmt.Errorf("filtering rules: %w", err))
	}

	compiled, warnings, err := rule.Compile(rules)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		return err
	}
	compiledCfg, err := config.Compile(cfg)
	if err != nil {
		return err
	}

	ignoreFile, err := loadIgnoreFile(cmd, defaultIgnorePath)
	if err != nil {
		return err
	}

	var scanCache *cache.Cache
	if scanCachePath != "" {
		scanCache, err = cache.Open(scanCachePath)
		if err != nil {
			return nserr.InvalidConfig(fmt.Errorf("opening cache: %w", err))
		}
		defer scanCache.Close()

		if _, err := scanCache.SyncRuleSetVersion(compiled.Fingerprint()); err != nil {
			return nserr.InvalidConfig(fmt.Errorf("syncing cache to rule set: %w", err))
		}
	}

	ctx, cancel := contextWithGracefulInterrupt()
	defer cancel()

	input, staged, err := buildScanInput(args, scanCache, compiledCfg)
	if err != nil {
		return err
	}

	result, err := scanner.Scan(ctx, input, scanner.Options{
		Rules:  compiled,
		Config: compiledCfg,
		Ignore: ignoreFile,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return &nserr.Error{Kind: nserr.KindInterrupted, Cause: err}
		}
		return err
	}

	if scanCache != nil && staged != nil {
		updateCache(scanCache, staged, result.Findings)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}

	if scanInteractive {
		if err := runInteractiveIgnore(cmd, result.Findings, ignoreFile); err != nil {
			return err
		}
	}

	if err := outputFindings(cmd, result.Findings); err != nil {
		return err
	}

	if anyBlocking(result.Findings, cfg.LowIsBlocking) {
		return &nserr.Error{Kind: nserr.KindBlockingFinding}
	}
	return nil
}

func loadRules(path string) ([]*types.Rule, error) {
	if path == "" {
		return rule.NewLoader().LoadBuiltinRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nserr.InvalidConfig(fmt.Errorf("reading rule file: %w", err))
	}
	return rule.NewLoader().LoadRules(data)
}

func loadIgnoreFile(cmd *cobra.Command, path string) (*suppress.IgnoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &suppress.IgnoreFile{}, nil
		}
		return nil, nserr.InvalidConfig(fmt.Errorf("reading %s: %w", path, err))
	}
	ignoreFile, diags := suppress.ParseIgnoreFile(data)
	for _, d := range diags {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
	return ignoreFile, nil
}

// buildScanInput resolves positional arguments into a scanner.Input. With
// --staged it reads the git index directly; otherwise every positional
// argument is either scanned as a single file or walked as a directory,
// defaulting to "." when no arguments are given.
func buildScanInput(args []string, scanCache *cache.Cache, compiledCfg *config.Compiled) (scanner.Input, []gitindex.StagedFile, error) {
	if scanStaged {
		staged, err := gitindex.Staged(".")
		if err != nil {
			return scanner.Input{}, nil, nserr.InvalidConfig(fmt.Errorf("reading git index: %w", err))
		}
		staged = filterCached(staged, scanCache)
		return scanner.Input{StagedFiles: staged}, staged, nil
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var paths []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return scanner.Input{}, nil, fmt.Errorf("target does not exist: %s", root)
		}
		if !info.IsDir() {
			paths = append(paths, root)
			continue
		}
		found, err := walk.Walk(walk.Options{Root: root, SkipPath: compiledCfg.IgnoresPath})
		if err != nil {
			return scanner.Input{}, nil, fmt.Errorf("walking %s: %w", root, err)
		}
		paths = append(paths, found...)
	}
	return scanner.Input{Paths: paths}, nil, nil
}

// filterCached drops staged files whose content hash the cache already
// marked clean, so a repeat `scan --staged` skips unchanged blobs.
func filterCached(staged []gitindex.StagedFile, scanCache *cache.Cache) []gitindex.StagedFile {
	if scanCache == nil {
		return staged
	}
	out := make([]gitindex.StagedFile, 0, len(staged))
	for _, f := range staged {
		clean, err := scanCache.IsClean(blobHash(f.Content))
		if err == nil && clean {
			continue
		}
		out = append(out, f)
	}
	return out
}

// updateCache marks every scanned staged file with zero findings as clean.
func updateCache(scanCache *cache.Cache, staged []gitindex.StagedFile, findings []types.Finding) {
	withFindings := make(map[string]bool, len(findings))
	for _, f := range findings {
		withFindings[f.Path] = true
	}
	now := time.Now().Unix()
	for _, f := range staged {
		if withFindings[f.Path] {
			continue
		}
		_ = scanCache.MarkClean(blobHash(f.Content), now)
	}
}

func blobHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// contextWithGracefulInterrupt cancels its context on SIGINT, which stops the
// orchestrator from dispatching new files; in-flight files still run to
// completion. If the process hasn't exited within a 2-second grace period
// after the signal, it is forced to exit 130 regardless of stragglers.
func contextWithGracefulInterrupt() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		time.AfterFunc(2*time.Second, func() {
			fmt.Fprintln(os.Stderr, "nosecrets: forcing exit after interrupt grace period")
			os.Exit(130)
		})
	}()
	return ctx, stop
}

func anyBlocking(findings []types.Finding, lowIsBlocking bool) bool {
	for _, f := range findings {
		if f.Severity.Blocks(lowIsBlocking) {
			return true
		}
	}
	return false
}

func outputFindings(cmd *cobra.Command, findings []types.Finding) error {
	switch scanFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(findings)
	case "human":
		return outputFindingsHuman(cmd, findings)
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}
}

func outputFindingsHuman(cmd *cobra.Command, findings []types.Finding) error {
	out := cmd.OutOrStdout()

	enabled := !scanNoColor && term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	heading := color.New(color.Bold, color.FgHiWhite)
	ruleStyle := color.New(color.Bold, color.FgHiBlue)
	fp := color.New(color.FgHiGreen)
	if !enabled {
		heading.DisableColor()
		ruleStyle.DisableColor()
		fp.DisableColor()
	}

	if len(findings) == 0 {
		fmt.Fprintln(out, "No findings.")
		return nil
	}

	for i, f := range findings {
		heading.Fprintf(out, "%d. %s:%d:%d ", i+1, f.Path, f.Line, f.Column)
		ruleStyle.Fprintf(out, "%s", f.RuleID)
		fmt.Fprintf(out, " [%s] ", f.Severity)
		fp.Fprintf(out, "%s", f.Fingerprint)
		fmt.Fprintf(out, " %s\n", f.RedactedPreview)
	}
	fmt.Fprintf(out, "\n%d finding(s)\n", len(findings))
	return nil
}

// runInteractiveIgnore offers to append an ignore entry for each finding not
// already covered by one, via a line-oriented y/n prompt on stdin.
func runInteractiveIgnore(cmd *cobra.Command, findings []types.Finding, ignoreFile *suppress.IgnoreFile) error {
	if len(findings) == 0 {
		return nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for _, f := range findings {
		if ignoreFile.Suppresses(f.Fingerprint, f.Path) {
			continue
		}
		fmt.Fprintf(out, "Ignore %s at %s:%d? [y/N] ", f.Fingerprint, f.Path, f.Line)
		answer, _ := reader.ReadString('\n')
		if !isYes(answer) {
			continue
		}
		if err := appendIgnoreEntry(defaultIgnorePath, f.Fingerprint, ""); err != nil {
			return err
		}
		ignoreFile.Entries = append(ignoreFile.Entries, types.IgnoreEntry{
			FingerprintPrefix: f.Fingerprint[len("nsi_"):],
		})
	}
	return nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
