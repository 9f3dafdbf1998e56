package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/motif"
)

// NewValidateCommand parses a motif file and reports what a kickoff would
// enqueue, without touching the queue. Useful for checking a motif before
// starting a long search.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <motif-file>",
		Short: "Validate a motif definition without starting a job",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	m, err := motif.LoadFile(path)
	if err != nil {
		if motif.IsMalformed(err) {
			formatter.Error("malformed_motif", err.Error())
			return WrapExitError(ExitCommandError, "invalid motif", err)
		}
		return WrapExitError(ExitCommandError, "load motif", err)
	}

	order := motif.DegreeRanker{}.Rank(m)

	if rootOpts.Format == "json" {
		return formatter.Success(map[string]any{
			"directed": m.Directed(),
			"nodes":    m.Nodes(),
			"edges":    len(m.Edges()),
			"order":    order,
		})
	}

	out := cmd.OutOrStdout()
	kind := "undirected"
	if m.Directed() {
		kind = "directed"
	}
	fmt.Fprintf(out, "%s motif: %d nodes, %d edges\n", kind, m.Len(), len(m.Edges()))
	fmt.Fprintf(out, "expansion order: %s\n", strings.Join(order, " "))
	return nil
}
