package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/results"
)

// StatusOptions holds options for the status command.
type StatusOptions struct {
	Root    *RootOptions
	Queue   string
	Results string
}

// NewStatusCommand reports a job's queue depth and result count. There is
// no explicit completion signal; a depth of zero with all leases drained
// means the search has finished.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "status <job>",
		Short: "Show queue depth and result count for a job",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Queue, "queue", "", "path to the queue database")
	cmd.Flags().StringVar(&opts.Results, "results", "", "path to the result store database")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions, job string) error {
	formatter := &OutputFormatter{Format: opts.Root.Format, Writer: cmd.OutOrStdout()}

	cfg, err := LoadConfig(opts.Root.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Queue != "" {
		cfg.Queue = opts.Queue
	}
	if opts.Results != "" {
		cfg.Results = opts.Results
	}

	q, err := queue.OpenSQLite(cfg.Queue, cfg.Lease())
	if err != nil {
		return WrapExitError(ExitFailure, "open queue", err)
	}
	defer q.Close()

	rs, err := results.Open(cfg.Results)
	if err != nil {
		return WrapExitError(ExitFailure, "open result store", err)
	}
	defer rs.Close()

	depth, err := q.Depth(cmd.Context(), job)
	if err != nil {
		return WrapExitError(ExitFailure, "queue depth", err)
	}
	count, err := rs.CountJob(cmd.Context(), job)
	if err != nil {
		return WrapExitError(ExitFailure, "count results", err)
	}

	if opts.Root.Format == "json" {
		return formatter.Success(map[string]any{
			"job":         job,
			"queue_depth": depth,
			"results":     count,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "job %s: %d tasks pending, %d results\n", job, depth, count)
	return nil
}
