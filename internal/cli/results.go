package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/results"
)

// ResultsOptions holds options for the results command.
type ResultsOptions struct {
	Root    *RootOptions
	Results string
	Job     string
	Output  string // csv | json | text
}

var validOutputs = []string{"csv", "json", "text"}

// NewResultsCommand dumps the completed mappings of a job.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List completed mappings for a job",
		Args:  cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Results, "results", "", "path to the result store database")
	cmd.Flags().StringVar(&opts.Job, "job", "", "job identifier (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "csv", "output style (csv|json|text)")
	cmd.MarkFlagRequired("job")
	return cmd
}

func runResults(cmd *cobra.Command, opts *ResultsOptions) error {
	if !contains(validOutputs, opts.Output) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, validOutputs))
	}

	cfg, err := LoadConfig(opts.Root.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Results != "" {
		cfg.Results = opts.Results
	}

	rs, err := results.Open(cfg.Results)
	if err != nil {
		return WrapExitError(ExitFailure, "open result store", err)
	}
	defer rs.Close()

	records, err := rs.ScanJob(cmd.Context(), opts.Job)
	if err != nil {
		return WrapExitError(ExitFailure, "scan results", err)
	}

	out := cmd.OutOrStdout()
	switch opts.Output {
	case "csv":
		b, err := results.RenderCSV(records)
		if err != nil {
			return WrapExitError(ExitFailure, "render results", err)
		}
		out.Write(b)
	case "json":
		b, err := results.RenderJSON(records)
		if err != nil {
			return WrapExitError(ExitFailure, "render results", err)
		}
		out.Write(b)
	case "text":
		for _, rec := range records {
			fmt.Fprintf(out, "%s\t%v\n", rec.Key, rec.Candidate)
		}
		fmt.Fprintf(out, "%d results for job %s\n", len(records), opts.Job)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
