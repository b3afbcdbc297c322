package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/dsl"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
	"github.com/rocketship-ai/shortcuts/internal/store"
)

type importFlags struct {
	dryRun bool
	diff   bool
}

// NewImportCmd creates a new import command
func NewImportCmd(opts *rootOptions) *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import shortcuts and variables from a YAML file",
		Long: `Import shortcuts and variables from a shortcuts file. Entries whose id
already exists are replaced.

Examples:
  shortcuts import shortcuts.yaml
  shortcuts import shortcuts.yaml --dry-run --diff`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, flags, args[0])
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would change without saving")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "Print a unified diff for replaced shortcuts")

	return cmd
}

func runImport(cmd *cobra.Command, opts *rootOptions, flags *importFlags, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	file, err := dsl.ParseYAML(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	out := cmd.OutOrStdout()
	var created, replaced int
	for _, s := range file.Shortcuts {
		existing, err := st.GetShortcut(ctx, s.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			created++
			fmt.Fprintf(out, "%s %s\n", color.GreenString("+"), s.Name)
		case err != nil:
			return err
		case existing.IsSameAs(s):
			fmt.Fprintf(out, "  %s (unchanged)\n", s.Name)
			continue
		default:
			replaced++
			fmt.Fprintf(out, "%s %s\n", color.YellowString("~"), s.Name)
			if flags.diff {
				diff, err := shortcutDiff(existing, s)
				if err != nil {
					return err
				}
				fmt.Fprint(out, diff)
			}
		}

		if flags.dryRun {
			continue
		}
		if err := st.SaveShortcut(ctx, s); err != nil {
			return fmt.Errorf("failed to save shortcut %q: %w", s.Name, err)
		}
	}

	if !flags.dryRun {
		for _, v := range file.Variables {
			if err := st.SaveVariable(ctx, v); err != nil {
				return fmt.Errorf("failed to save variable %s: %w", v.Key, err)
			}
		}
	}

	verb := "Imported"
	if flags.dryRun {
		verb = "Would import"
	}
	fmt.Fprintf(out, "%s %d new and %d replaced shortcut(s), %d variable(s)\n", verb, created, replaced, len(file.Variables))
	Logger.Info("import complete", "file", path, "created", created, "replaced", replaced, "dry_run", flags.dryRun)
	return nil
}

// shortcutDiff renders the change from a stored shortcut to an imported one
// as a unified diff of their YAML forms.
func shortcutDiff(before, after *shortcut.Shortcut) (string, error) {
	original, err := dsl.MarshalShortcutYAML(before)
	if err != nil {
		return "", err
	}
	modified, err := dsl.MarshalShortcutYAML(after)
	if err != nil {
		return "", err
	}
	edits := udiff.Strings(original, modified)
	return udiff.ToUnified("a/"+before.ID, "b/"+after.ID, original, edits, 3)
}
