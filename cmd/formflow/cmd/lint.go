package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

var lintCmd = &cobra.Command{
	Use:   "lint <definition>...",
	Short: "Lint form definition files",
	Long:  `Lint parses each definition (JSON or YAML) and reports ordering, typing, and reference issues.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	total := 0
	for _, path := range args {
		_, err := formdef.Load(path)
		if err == nil {
			continue
		}

		var lintErr *formdef.LintError
		if !errors.As(err, &lintErr) {
			return fmt.Errorf("lint %s: %w", path, err)
		}
		for _, issue := range lintErr.Issues {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, issue)
		}
		total += len(lintErr.Issues)
	}

	if total > 0 {
		return fmt.Errorf("%d issue(s) found", total)
	}
	return nil
}
