package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// NewVarsCmd creates the vars command group
func NewVarsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Manage global variables",
	}
	cmd.AddCommand(newVarsListCmd(opts), newVarsSetCmd(opts))
	return cmd
}

func newVarsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			snap, err := st.Variables(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTYPE\tVALUE")
			for _, v := range snap.All() {
				value := v.Value
				if v.Type == shortcut.VariablePassword && value != "" {
					value = "********"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Key, v.Type, value)
			}
			return w.Flush()
		},
	}
}

func newVarsSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a variable value, creating a constant variable if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			key, value := args[0], args[1]
			snap, err := st.Variables(ctx)
			if err != nil {
				return err
			}
			if v, ok := snap.Lookup(key); ok {
				err = st.SetVariableValue(ctx, v.ID, value)
			} else {
				err = st.SaveVariable(ctx, shortcut.NewVariable(key, value))
			}
			if err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
			return nil
		},
	}
}
