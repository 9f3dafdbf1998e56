package cli

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/results"
	"github.com/motiq/motiq/internal/worker"
)

// WorkerOptions holds options for the worker command.
type WorkerOptions struct {
	Root    *RootOptions
	Queue   string
	Results string
	Host    string
	Workers int
	Verify  bool
}

// NewWorkerCommand runs a pool of expansion workers until interrupted.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run expansion workers against the queue",
		Long:  "Lease tasks from the queue, expand candidates one node at a time against the host graph, and fan out children or commit completed mappings. Runs until SIGINT/SIGTERM.",
		Args:  cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Queue, "queue", "", "path to the queue database")
	cmd.Flags().StringVar(&opts.Results, "results", "", "path to the result store database")
	cmd.Flags().StringVar(&opts.Host, "host", "", "host graph (.db for SQLite, otherwise YAML)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of concurrent workers (default from config)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "independently verify every completed mapping before committing")
	return cmd
}

func runWorker(cmd *cobra.Command, opts *WorkerOptions) error {
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
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}

	host, closeHost, err := openHost(cfg.Host)
	if err != nil {
		return WrapExitError(ExitCommandError, "open host graph", err)
	}
	defer closeHost()

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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(cfg.Workers, func() *worker.Worker {
		return worker.New(q, rs, host, nil, worker.Config{Verify: opts.Verify})
	})

	slog.Info("worker pool starting",
		"workers", cfg.Workers,
		"queue", cfg.Queue,
		"results", cfg.Results,
		"host", cfg.Host,
		"verify", opts.Verify,
	)
	pool.Run(ctx)
	slog.Info("worker pool stopped")
	return nil
}
