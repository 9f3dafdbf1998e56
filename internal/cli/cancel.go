package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/queue"
)

// CancelOptions holds options for the cancel command.
type CancelOptions struct {
	Root  *RootOptions
	Queue string
}

// NewCancelCommand purges a job's pending tasks from the queue. Tasks
// currently leased by a worker finish normally; results already committed
// stay in the store.
func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CancelOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "cancel <job>",
		Short: "Cancel a job by purging its pending tasks",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Queue, "queue", "", "path to the queue database")
	return cmd
}

func runCancel(cmd *cobra.Command, opts *CancelOptions, job string) error {
	formatter := &OutputFormatter{Format: opts.Root.Format, Writer: cmd.OutOrStdout()}

	cfg, err := LoadConfig(opts.Root.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Queue != "" {
		cfg.Queue = opts.Queue
	}

	q, err := queue.OpenSQLite(cfg.Queue, cfg.Lease())
	if err != nil {
		return WrapExitError(ExitFailure, "open queue", err)
	}
	defer q.Close()

	purged, err := q.PurgeJob(cmd.Context(), job)
	if err != nil {
		return WrapExitError(ExitFailure, "purge job", err)
	}

	slog.Info("job cancelled", "job", job, "purged", purged)

	if opts.Root.Format == "json" {
		return formatter.Success(map[string]any{"job": job, "purged": purged})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "job %s: purged %d pending tasks\n", job, purged)
	return nil
}
