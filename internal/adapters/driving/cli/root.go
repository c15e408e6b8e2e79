// Package cli provides the lexgate command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	configPath string
	verbose    bool
)

// Services injected by the application wiring.
var (
	ingestCoordinator driving.IngestionCoordinator
	indexer           driving.Indexer
	retriever         driving.Retriever
	answerer          driving.Answerer
	sourceService     driving.SourceService
	documentService   driving.DocumentService
	scheduler         driving.Scheduler
	evidenceActions   driving.EvidenceActions
)

// Initializer builds the services from the config file at path and
// injects them with SetServices.
type Initializer func(ctx context.Context, path string) error

var initializer Initializer

// skipInitAnnotation marks commands that run without services.
const skipInitAnnotation = "lexgate/skip-init"

var rootCmd = &cobra.Command{
	Use:   "lexgate",
	Short: "Swiss legal text ingestion and grounded retrieval",
	Long: `lexgate harvests Swiss federal statutes and court decisions, splits them
into citable chunks, embeds them and answers queries only from evidence that
passes a relevance threshold.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.lexgate/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services groups the driving ports used by the commands.
type Services struct {
	Ingest    driving.IngestionCoordinator
	Indexer   driving.Indexer
	Retriever driving.Retriever
	Answerer  driving.Answerer
	Source    driving.SourceService
	Document  driving.DocumentService
	Scheduler driving.Scheduler
	Actions   driving.EvidenceActions
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestCoordinator = s.Ingest
	indexer = s.Indexer
	retriever = s.Retriever
	answerer = s.Answerer
	sourceService = s.Source
	documentService = s.Document
	scheduler = s.Scheduler
	evidenceActions = s.Actions
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetInitializer sets the function that builds services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if initializer == nil || servicesConfigured() || cmd.Annotations[skipInitAnnotation] == "true" {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return initializer(ctx, configPath)
}

func servicesConfigured() bool {
	return ingestCoordinator != nil || retriever != nil || sourceService != nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
