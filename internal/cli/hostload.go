package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/motiq/motiq/internal/graph"
)

// HostLoadOptions holds options for the hostload command.
type HostLoadOptions struct {
	Root   *RootOptions
	Output string
}

// NewHostLoadCommand imports a YAML host graph into a SQLite database so
// workers can share one read-only file instead of each parsing the YAML.
func NewHostLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HostLoadOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "hostload <graph.yaml>",
		Short: "Import a YAML host graph into a SQLite database",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHostLoad(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "host.db", "destination SQLite database")
	return cmd
}

func runHostLoad(cmd *cobra.Command, opts *HostLoadOptions, src string) error {
	mem, err := graph.LoadYAMLFile(src)
	if err != nil {
		return WrapExitError(ExitCommandError, "load host graph", err)
	}

	db, err := graph.CreateSQLite(opts.Output, mem.Directed())
	if err != nil {
		return WrapExitError(ExitFailure, "create host database", err)
	}
	defer db.Close()

	if err := db.ImportMemory(cmd.Context(), mem); err != nil {
		return WrapExitError(ExitFailure, "import host graph", err)
	}

	nodes, err := mem.AllNodes(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "count nodes", err)
	}

	slog.Info("host graph imported", "src", src, "dst", opts.Output, "nodes", len(nodes))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d nodes into %s\n", len(nodes), opts.Output)
	return nil
}
