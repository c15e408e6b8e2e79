package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui"
)

var tuiWithScheduler bool

// runProgram runs the bubbletea program. Tests replace it.
var runProgram = func(m tea.Model, ctx context.Context) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for lexgate.

The TUI lets you ask legal questions, inspect the evidence passages that
passed the relevance threshold, request a cited answer, and browse sources,
their failures and their ingested documents.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Retrieve / Select
  c / o    - Copy citation / Open source
  a        - Generate cited answer
  Esc      - Back / Cancel
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiWithScheduler, "with-scheduler", false,
		"run scheduled ingestion in the background while the TUI is open")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Retriever: retriever,
		Answerer:  answerer,
		Source:    sourceService,
		Ingest:    ingestCoordinator,
		Document:  documentService,
		Actions:   evidenceActions,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	app.WithContext(ctx)

	if tuiWithScheduler {
		stop, err := startBackgroundScheduler(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := runProgram(app, ctx); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
