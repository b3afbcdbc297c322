package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates a new list command
func NewListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			shortcuts, err := st.ListShortcuts(ctx)
			if err != nil {
				return err
			}
			if len(shortcuts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shortcuts found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMETHOD\tURL")
			for _, s := range shortcuts {
				method, url := string(s.Method), s.URL
				if s.IsScriptOnly() {
					method, url = "-", "(script)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, method, url)
			}
			return w.Flush()
		},
	}
}
