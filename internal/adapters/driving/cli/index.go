package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed pending chunks",
	Long: `Embeds every stored chunk that has no vector yet. Batches that keep
failing are reported and stay pending for the next run.

Use --rebuild to rebuild the approximate nearest-neighbour index afterwards.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "rebuild the vector index after embedding")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}
	ctx := commandContext(cmd)

	if documentService != nil {
		if stats, err := documentService.Stats(ctx); err == nil {
			cmd.Printf("Embedding %d pending chunks...\n", stats.Pending())
		}
	}

	report, err := indexer.EmbedPending(ctx)
	if report != nil {
		cmd.Printf("Embedded %d chunks", report.Embedded)
		if n := report.FailedChunks(); n > 0 {
			cmd.Printf(", %d left pending in %d failed batches", n, len(report.Failed))
		}
		cmd.Println()
		for _, f := range report.Failed {
			cmd.Printf("  batch of %d: %s\n", len(f.ChunkIDs), f.Reason)
		}
	}
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	if indexRebuild {
		cmd.Println("Rebuilding vector index...")
		if err := indexer.RebuildIndex(ctx); err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		cmd.Println("Vector index rebuilt.")
	}
	return nil
}
