package cli

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/motif"
	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/task"
)

// KickoffOptions holds options for the kickoff command.
type KickoffOptions struct {
	Root  *RootOptions
	Job   string
	Queue string
}

// NewKickoffCommand starts a new search job: parse and validate the motif,
// then enqueue the single root task with an empty candidate. Malformed
// motifs fail here, synchronously, before anything touches the queue.
func NewKickoffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KickoffOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "kickoff <motif-file>",
		Short: "Start a search job for a motif",
		Long:  "Parse a motif definition (YAML or CUE), validate it, and enqueue the root task. Workers pick it up from there.",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKickoff(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Job, "job", "", "job identifier (default: random UUID)")
	cmd.Flags().StringVar(&opts.Queue, "queue", "", "path to the queue database")
	return cmd
}

func runKickoff(cmd *cobra.Command, opts *KickoffOptions, motifPath string) error {
	formatter := &OutputFormatter{Format: opts.Root.Format, Writer: cmd.OutOrStdout()}

	cfg, err := LoadConfig(opts.Root.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Queue != "" {
		cfg.Queue = opts.Queue
	}

	m, err := motif.LoadFile(motifPath)
	if err != nil {
		if motif.IsMalformed(err) {
			formatter.Error("malformed_motif", err.Error())
			return WrapExitError(ExitCommandError, "invalid motif", err)
		}
		return WrapExitError(ExitCommandError, "load motif", err)
	}

	job := opts.Job
	if job == "" {
		job = uuid.NewString()
	}

	order := motif.DegreeRanker{}.Rank(m)
	root := task.Task{
		Job:             job,
		Motif:           m.Doc(),
		Candidate:       map[string]string{},
		Directed:        m.Directed(),
		Interestingness: motif.RankMap(order),
	}
	payload, err := root.Encode()
	if err != nil {
		return WrapExitError(ExitFailure, "encode root task", err)
	}
	id, err := root.Hash()
	if err != nil {
		return WrapExitError(ExitFailure, "hash root task", err)
	}

	q, err := queue.OpenSQLite(cfg.Queue, cfg.Lease())
	if err != nil {
		return WrapExitError(ExitFailure, "open queue", err)
	}
	defer q.Close()

	if err := q.Enqueue(cmd.Context(), job, id, payload); err != nil {
		return WrapExitError(ExitFailure, "enqueue root task", err)
	}

	slog.Info("job kicked off",
		"job", job,
		"motif", motifPath,
		"nodes", m.Len(),
		"edges", len(m.Edges()),
	)

	if opts.Root.Format == "json" {
		return formatter.Success(map[string]any{
			"job":   job,
			"nodes": m.Len(),
			"edges": len(m.Edges()),
			"order": order,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "job %s enqueued (%d nodes, %d edges)\n", job, m.Len(), len(m.Edges()))
	return nil
}
