package cli

import (
	"github.com/spf13/cobra"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "rules",
		Short:        "Print the configured ignore patterns and alias rules",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ignored, aliases := e.builder.Rules()

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				rules := make([]map[string]string, len(aliases))
				for i, a := range aliases {
					rules[i] = map[string]string{"pattern": a[0], "replacement": a[1]}
				}
				return writeJSON(out, map[string]any{"ignore_patterns": ignored, "alias_rules": rules})
			}
			for _, p := range ignored {
				if err := writeLine(out, "ignore %s", p); err != nil {
					return err
				}
			}
			for _, a := range aliases {
				if err := writeLine(out, "alias  %s -> %s", a[0], a[1]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
