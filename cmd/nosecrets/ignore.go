package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nosecrets/nosecrets/pkg/nserr"
)

var ignoreYes bool

var ignoreCmd = &cobra.Command{
	Use:   "ignore <fingerprint> [path-glob]",
	Short: "Add a fingerprint to .nosecretsignore",
	Long: `Ignore appends a line to .nosecretsignore so future scans suppress the
given fingerprint, optionally scoped to a path glob.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIgnore,
}

func init() {
	ignoreCmd.Flags().BoolVarP(&ignoreYes, "yes", "y", false, "skip the confirmation prompt")
}

func runIgnore(cmd *cobra.Command, args []string) error {
	fingerprint := args[0]
	var pathGlob string
	if len(args) == 2 {
		pathGlob = args[1]
	}

	if !strings.HasPrefix(fingerprint, "nsi_") {
		return fmt.Errorf("not a fingerprint: %q (expected nsi_<hex>)", fingerprint)
	}

	if !ignoreYes {
		ok, err := confirm(cmd, fmt.Sprintf("Add %s to %s? [y/N] ", fingerprint, defaultIgnorePath))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not added.")
			return nil
		}
	}

	if err := appendIgnoreEntry(defaultIgnorePath, fingerprint, pathGlob); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", fingerprint, defaultIgnorePath)
	return nil
}

// appendIgnoreEntry appends one well-formed .nosecretsignore line to path,
// creating the file if it does not exist.
func appendIgnoreEntry(path, fingerprint, pathGlob string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nserr.InvalidConfig(fmt.Errorf("opening %s: %w", path, err))
	}
	defer f.Close()

	line := fingerprint
	if pathGlob != "" {
		line = fmt.Sprintf("%s:%s", fingerprint, pathGlob)
	}

	if _, err := fmt.Fprintln(f, line); err != nil {
		return nserr.InvalidConfig(fmt.Errorf("writing %s: %w", path, err))
	}
	return nil
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}
	return isYes(answer), nil
}
