package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var failuresClear bool

var failuresCmd = &cobra.Command{
	Use:   "failures [source-id]",
	Short: "Show items that failed to ingest",
	Long: `Lists the catalog items of a source that failed during fetch, extraction,
chunking, storage or embedding, with the stage and reason.

Use --clear to discard the recorded failures.`,
	Args: cobra.ExactArgs(1),
	RunE: runFailures,
}

func init() {
	failuresCmd.Flags().BoolVar(&failuresClear, "clear", false, "discard the recorded failures")
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	ctx := commandContext(cmd)
	sourceID := args[0]

	if failuresClear {
		if err := sourceService.ClearFailures(ctx, sourceID); err != nil {
			return fmt.Errorf("failed to clear failures: %w", err)
		}
		cmd.Printf("Failures of %s cleared.\n", sourceID)
		return nil
	}

	failures, err := sourceService.Failures(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to list failures: %w", err)
	}
	if len(failures) == 0 {
		cmd.Println("No failures recorded.")
		return nil
	}

	cmd.Printf("Failures (%d):\n", len(failures))
	for i := range failures {
		f := &failures[i]
		cmd.Printf("  %s  [%s]  %s\n", f.CatalogID, f.Stage, f.Reason)
	}
	return nil
}
