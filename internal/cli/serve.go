package cli

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/results"
	"github.com/motiq/motiq/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Root    *RootOptions
	Queue   string
	Results string
	Listen  string
}

// NewServeCommand runs the read-only HTTP API over the queue and result
// store: job status, result listings, health, and metrics.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP status and results API",
		Args:  cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Queue, "queue", "", "path to the queue database")
	cmd.Flags().StringVar(&opts.Results, "results", "", "path to the result store database")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
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
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(q, rs)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Listen)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "http server", err)
		}
		return nil
	}
}
