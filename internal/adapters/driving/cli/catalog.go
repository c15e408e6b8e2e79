package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

var (
	browseCursor string
	historyLimit int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect sources and stored documents",
	Long:  `Commands for listing configured sources, browsing their remote catalogs and inspecting stored documents.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogBrowseCmd = &cobra.Command{
	Use:   "browse [source-id]",
	Short: "List one catalog page without ingesting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogBrowse,
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status [source-id]",
	Short: "Show ingestion state of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogStatus,
}

var catalogHistoryCmd = &cobra.Command{
	Use:   "history [source-id]",
	Short: "Show recent ingestion runs of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogHistory,
}

var catalogDocumentsCmd = &cobra.Command{
	Use:   "documents [source-id]",
	Short: "List stored documents of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogDocuments,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show a stored document and its citations",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

func init() {
	catalogBrowseCmd.Flags().StringVar(&browseCursor, "cursor", "", "cursor of the page to list")
	catalogHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs shown")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogBrowseCmd)
	catalogCmd.AddCommand(catalogStatusCmd)
	catalogCmd.AddCommand(catalogHistoryCmd)
	catalogCmd.AddCommand(catalogDocumentsCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources := sourceService.List()
	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	cmd.Println("Sources:")
	for _, s := range sources {
		cmd.Printf("  %s (%s, %s)\n", s.ID, s.Type, s.Kind)
		cmd.Printf("      Workers: %d\n", s.Workers)
		if s.Schedule != "" {
			cmd.Printf("      Schedule: %s\n", s.Schedule)
		}
		if len(s.Filters) > 0 {
			cmd.Printf("      Filters: %s\n", formatFilters(s.Filters))
		}
	}
	return nil
}

func runCatalogBrowse(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	page, err := sourceService.Browse(commandContext(cmd), args[0], browseCursor)
	if err != nil {
		return fmt.Errorf("browse failed: %w", err)
	}

	if len(page.Entries) == 0 {
		cmd.Println("No entries on this page.")
	}
	for i := range page.Entries {
		e := &page.Entries[i]
		title := e.Title
		if title == "" {
			title = e.CatalogID
		}
		cmd.Printf("  %s  %s\n", e.CatalogID, title)
	}
	if page.Done {
		cmd.Println("End of catalog.")
	} else if page.NextCursor != "" {
		cmd.Printf("Next page: --cursor %q\n", page.NextCursor)
	}
	return nil
}

func runCatalogStatus(cmd *cobra.Command, args []string) error {
	if ingestCoordinator == nil {
		return errors.New("ingestion service not configured")
	}

	status, err := ingestCoordinator.Status(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Source: %s\n", status.SourceID)
	cmd.Printf("Running: %t\n", status.Running)
	if c := status.Cursor; c != nil {
		cmd.Printf("Pages: %d\n", c.Pages)
		cmd.Printf("Items listed: %d\n", c.Fetched)
		cmd.Printf("Exhausted: %t\n", c.Done)
		if !c.LastSuccess.IsZero() {
			cmd.Printf("Last page: %s\n", c.LastSuccess.Local().Format(timeLayout))
		}
	} else {
		cmd.Println("Never ingested.")
	}
	cmd.Printf("Failures: %d\n", status.FailureCount)
	if r := status.LastRun; r != nil {
		cmd.Printf("Last run: %s (%s, %s)\n",
			r.StartedAt.Local().Format(timeLayout), r.Trigger, runOutcome(r.Success, r.Error))
	}
	return nil
}

func runCatalogHistory(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	runs, err := sourceService.History(commandContext(cmd), args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for i := range runs {
		r := &runs[i]
		cmd.Printf("  %s  %-8s  %s  %d documents, %d chunks, %d failures (%s)\n",
			r.StartedAt.Local().Format(timeLayout),
			r.Trigger,
			runOutcome(r.Success, r.Error),
			r.Documents, r.Chunks, r.Failures,
			r.EndedAt.Sub(r.StartedAt).Round(time.Second))
	}
	return nil
}

func runCatalogDocuments(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.ListByOrigin(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("Documents (%d):\n", len(docs))
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %s  %s\n", d.ID, d.Reference, d.Title)
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	d, err := documentService.GetDetails(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID: %s\n", d.ID)
	cmd.Printf("Title: %s\n", d.Title)
	cmd.Printf("Reference: %s\n", d.Reference)
	cmd.Printf("Kind: %s\n", d.Kind)
	cmd.Printf("Jurisdiction: %s\n", d.Jurisdiction)
	if d.LegalDomain != "" {
		cmd.Printf("Legal domain: %s\n", d.LegalDomain)
	}
	cmd.Printf("Source: %s (%s)\n", d.Origin, d.ExternalID)
	if d.URL != "" {
		cmd.Printf("URL: %s\n", d.URL)
	}
	if !d.PublishedAt.IsZero() {
		cmd.Printf("Published: %s\n", d.PublishedAt.Format("2006-01-02"))
	}
	cmd.Printf("Chunks: %d (%d embedded)\n", d.ChunkCount, d.EmbeddedCount)

	if len(d.Metadata) > 0 {
		cmd.Println("Metadata:")
		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %s: %s\n", k, d.Metadata[k])
		}
	}

	if len(d.Citations) > 0 {
		cmd.Println("Citations:")
		for _, c := range d.Citations {
			cmd.Printf("  %s\n", c)
		}
	}
	return nil
}

func runOutcome(success bool, errMsg string) string {
	if success {
		return "ok"
	}
	if errMsg == "" {
		return "failed"
	}
	return "failed: " + errMsg
}

func formatFilters(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+filters[k])
	}
	return strings.Join(parts, ", ")
}
