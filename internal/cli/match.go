package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"httpquery/internal/match"
	"httpquery/internal/predicate"
	"httpquery/internal/query"
)

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	var entity, recordsPath string

	cmd := &cobra.Command{
		Use:   "match --entity <name> --records <file> [key=value ...]",
		Short: "Filter records from a file with query parameters",
		Long: `Filter records with query parameters.

The records file holds a YAML or JSON list of objects keyed by field name.
Relations nest: a to-one relation is an object, a to-many relation a list.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, rootOpts, entity, recordsPath, args)
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "root entity name")
	cmd.Flags().StringVarP(&recordsPath, "records", "r", "", "YAML or JSON file with the records")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runMatch(cmd *cobra.Command, opts *RootOptions, entity, recordsPath string, args []string) error {
	e, err := loadEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	records, err := readRecords(recordsPath)
	if err != nil {
		return err
	}

	list, err := query.BuildQuery(e.builder, entity, query.FromPairs(args), predicate.NewList())
	if err != nil {
		return err
	}
	m, err := match.Compile(e.registry, entity, list)
	if err != nil {
		return err
	}

	var matched []map[string]any
	for _, r := range records {
		if m.Match(match.Normalize(e.registry, e.converters, entity, r)) {
			matched = append(matched, r)
		}
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if matched == nil {
			matched = []map[string]any{}
		}
		return writeJSON(out, matched)
	}
	if opts.Verbose {
		if err := writeLine(cmd.ErrOrStderr(), "condition: %s", m.Source()); err != nil {
			return err
		}
	}
	for _, r := range matched {
		if err := writeLine(out, "%v", r); err != nil {
			return err
		}
	}
	return writeLine(out, "%d of %d records match", len(matched), len(records))
}

func readRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}
