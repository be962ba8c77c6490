package cli

import (
	"github.com/spf13/cobra"

	"httpquery/internal/config"
	"httpquery/internal/metadata"
	"httpquery/internal/store"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <entities.yaml>",
		Short: "Store entity definitions in the metadata database",
		Long: `Store the entities and relations of a YAML definition file in the
_entities and _relations tables of the configured database, creating the
tables when missing. Existing definitions with the same names are replaced.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, opts *RootOptions, path string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	doc, err := metadata.ReadFile(path)
	if err != nil {
		return err
	}

	s, err := store.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Bootstrap(ctx); err != nil {
		return err
	}
	if err := s.Import(ctx, doc); err != nil {
		return err
	}

	names, err := store.EntityNames(ctx, s.DB)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"entities": names})
	}
	return writeLine(cmd.OutOrStdout(), "%d entities stored", len(names))
}
