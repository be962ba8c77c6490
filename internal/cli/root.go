// Package cli implements the qexplain command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"httpquery/internal/config"
	"httpquery/internal/convert"
	"httpquery/internal/metadata"
	"httpquery/internal/query"
	"httpquery/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for qexplain.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qexplain",
		Short: "Explain and test query-string filters",
		Long: `Build the predicate set a query string produces for an entity, test it
against records, and manage the entity metadata it resolves fields with.`,
		SilenceErrors: true, // main prints the error once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./app.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every dropped parameter")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env is what the filter commands share: configuration, metadata and a
// configured builder.
type env struct {
	cfg        *config.Config
	registry   *metadata.Registry
	converters *convert.Registry
	builder    *query.Builder
}

func loadEnv(ctx context.Context, opts *RootOptions, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	reg := metadata.NewRegistry()
	if err := store.LoadMetadata(ctx, cfg, reg); err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	var builderOpts []query.Option
	if opts.Verbose {
		builderOpts = append(builderOpts, query.WithLogger(log.New(stderr, "qexplain: ", 0)))
	}
	conv := convert.NewRegistry()
	return &env{
		cfg:        cfg,
		registry:   reg,
		converters: conv,
		builder:    query.NewFromConfig(cfg.HTTPQuery, conv, reg, builderOpts...),
	}, nil
}
