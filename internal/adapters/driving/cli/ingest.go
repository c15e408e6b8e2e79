package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// progressInterval is how often ingestion status is polled.
var progressInterval = 500 * time.Millisecond

var (
	ingestReset         bool
	ingestMaxPages      int
	ingestSkipEmbedding bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id]",
	Short: "Ingest documents from catalog sources",
	Long: `Walks the catalog of a source page by page, fetches and extracts every
item, splits it into chunks and embeds them. Runs resume from the last
committed page. Without a source ID every configured source is ingested.

Items that fail are recorded and skipped; see "lexgate failures".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "discard the stored cursor and start from the first page")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "stop after this many catalog pages (0 = unlimited)")
	ingestCmd.Flags().BoolVar(&ingestSkipEmbedding, "skip-embedding", false, "store chunks without embedding them")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestCoordinator == nil {
		return errors.New("ingestion service not configured")
	}
	if ingestMaxPages < 0 {
		return fmt.Errorf("%w: --max-pages must not be negative", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	opts := driving.IngestOptions{
		Reset:         ingestReset,
		MaxPages:      ingestMaxPages,
		SkipEmbedding: ingestSkipEmbedding,
		Trigger:       domain.TriggerManual,
	}

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Ingesting source: %s...\n", sourceID)

		report, err := ingestWithProgress(ctx, cmd, ingestCoordinator, sourceID, opts)
		if report != nil {
			printIngestReport(cmd, report)
		}
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		return nil
	}

	cmd.Println("Ingesting all sources...")
	reports, err := ingestCoordinator.IngestAll(ctx, opts)
	for i := range reports {
		printIngestReport(cmd, &reports[i])
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

// ingestWithProgress runs an ingestion while displaying catalog progress.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	coord driving.IngestionCoordinator,
	sourceID string,
	opts driving.IngestOptions,
) (*domain.IngestReport, error) {
	type result struct {
		report *domain.IngestReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := coord.Ingest(ctx, sourceID, opts)
		done <- result{report, err}
	}()

	interactive := isTerminal(cmd.OutOrStdout())
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastFetched := -1
	for {
		select {
		case res := <-done:
			if interactive && lastFetched >= 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			// Best effort; a status error only skips this update.
			status, err := coord.Status(ctx, sourceID)
			if err != nil || status == nil || status.Cursor == nil {
				continue
			}
			if status.Cursor.Fetched == lastFetched {
				continue
			}
			lastFetched = status.Cursor.Fetched
			if interactive {
				cmd.Printf("\rPage %d, %d items listed", status.Cursor.Pages, status.Cursor.Fetched)
			} else {
				cmd.Printf("Page %d, %d items listed\n", status.Cursor.Pages, status.Cursor.Fetched)
			}
		}
	}
}

func printIngestReport(cmd *cobra.Command, r *domain.IngestReport) {
	cmd.Printf("%s: %d pages, %d documents (%d unchanged, %d duplicates), %d chunks, %d embedded",
		r.SourceID, r.Pages, r.Documents, r.Unchanged, r.Duplicates, r.Chunks, r.Embedded)
	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		cmd.Printf(" in %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	cmd.Println()
	if n := len(r.Failures); n > 0 {
		cmd.Printf("  %d items failed; run 'lexgate failures %s' for details\n", n, r.SourceID)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
