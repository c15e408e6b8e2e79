package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexgate/internal/logger"
)

var errNoScheduler = errors.New("scheduler not configured")

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Recurring ingestion commands",
	Long:  `Commands for sources that declare a cron schedule in the config.`,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled sources and their next run",
	Args:  cobra.NoArgs,
	RunE:  runScheduleList,
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	Long:  `Runs scheduled ingestion until interrupted with Ctrl+C.`,
	Args:  cobra.NoArgs,
	RunE:  runScheduleRun,
}

var scheduleNowCmd = &cobra.Command{
	Use:   "now [source-id]",
	Short: "Run the scheduled job of a source immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleNow,
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleNowCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleList(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errNoScheduler
	}

	jobs := scheduler.Jobs(time.Now())
	if len(jobs) == 0 {
		cmd.Println("No scheduled sources.")
		return nil
	}

	cmd.Println("Scheduled sources:")
	for _, j := range jobs {
		cmd.Printf("  %s  %q  next: %s\n", j.SourceID, j.Spec, j.Next.Local().Format(timeLayout))
	}
	return nil
}

func runScheduleRun(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errNoScheduler
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	cmd.Println("Scheduler stopped.")
	return nil
}

func runScheduleNow(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errNoScheduler
	}

	sourceID := args[0]
	cmd.Printf("Running scheduled job: %s...\n", sourceID)
	if err := scheduler.RunNow(commandContext(cmd), sourceID); err != nil {
		return fmt.Errorf("scheduled job failed: %w", err)
	}
	cmd.Printf("Job %s finished.\n", sourceID)
	return nil
}

// startBackgroundScheduler runs the scheduler until ctx ends, for commands
// that own the terminal or stdio. Its output goes to the log only. The
// returned func stops it and waits for in-flight runs.
func startBackgroundScheduler(ctx context.Context) (func(), error) {
	if scheduler == nil {
		return nil, errNoScheduler
	}
	go func() {
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("scheduler stopped: %v", err)
		}
	}()
	return func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop: %v", err)
		}
	}, nil
}
