package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/dsl"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// NewExportCmd creates a new export command
func NewExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [id-or-name...]",
		Short: "Export shortcuts and variables as YAML",
		Long: `Export shortcuts and all variables as a shortcuts file. Without arguments
every shortcut is exported.

Examples:
  shortcuts export > shortcuts.yaml
  shortcuts export "Toggle lights" -o lights.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			var shortcuts []*shortcut.Shortcut
			if len(args) == 0 {
				if shortcuts, err = st.ListShortcuts(ctx); err != nil {
					return err
				}
			}
			for _, arg := range args {
				s, err := st.FindShortcut(ctx, arg)
				if err != nil {
					return fmt.Errorf("shortcut %s: %w", arg, err)
				}
				shortcuts = append(shortcuts, s)
			}

			vars, err := st.Variables(ctx)
			if err != nil {
				return err
			}
			data, err := dsl.MarshalYAML(shortcuts, vars.All())
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			Logger.Info("exported shortcuts", "file", output, "count", len(shortcuts))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
