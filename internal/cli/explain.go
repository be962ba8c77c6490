package cli

import (
	"github.com/spf13/cobra"

	"httpquery/internal/predicate"
	"httpquery/internal/query"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "explain --entity <name> [key=value ...]",
		Short: "Print the predicates built from query parameters",
		Long: `Print the predicates built from query parameters.

Each argument is one literal key=value pair, in query-string order:

  qexplain explain --entity Artist 'albums.year__notin=1999,2000' 'name__orderby=asc'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, rootOpts, entity, args)
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "root entity name")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runExplain(cmd *cobra.Command, opts *RootOptions, entity string, args []string) error {
	e, err := loadEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	list, err := query.BuildQuery(e.builder, entity, query.FromPairs(args), predicate.NewList())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, list.Snapshot())
	}
	if list.Len() == 0 && list.OrderBy() == "" {
		return writeLine(out, "(no predicates)")
	}
	return writeLine(out, "%s", list)
}
