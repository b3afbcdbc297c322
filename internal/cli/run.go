package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/feedback"
)

type runFlags struct {
	jq             string
	nonInteractive bool
	assumeYes      bool
	vars           map[string]string
}

// NewRunCmd creates a new run command
func NewRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <id-or-name>",
		Short: "Run a shortcut",
		Long: `Run a saved shortcut: ask for its interactive variables, run its scripts,
send the request and report the outcome according to its feedback mode.

Examples:
  shortcuts run "Toggle lights"
  shortcuts run api-status --jq '.components[].status'
  shortcuts run deploy -n -y --var env=staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShortcut(cmd, opts, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.jq, "jq", "", "jq filter applied to JSON response bodies")
	cmd.Flags().BoolVarP(&flags.nonInteractive, "non-interactive", "n", false, "Never prompt; use defaults and --var values")
	cmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "Answer yes to confirmations")
	cmd.Flags().StringToStringVarP(&flags.vars, "var", "v", nil, "Value for an interactive variable (key=value)")

	return cmd
}

func runShortcut(cmd *cobra.Command, opts *rootOptions, flags *runFlags, idOrName string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter, err := NewTerminalPresenter(cmd.OutOrStdout(), PresenterOptions{
		Interactive: !flags.nonInteractive && isatty.IsTerminal(os.Stdin.Fd()),
		AssumeYes:   flags.assumeYes,
		Answers:     flags.vars,
		JQ:          flags.jq,
	})
	if err != nil {
		return err
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	engine := opts.newEngine(st, presenter)
	event := engine.Run(ctx, idOrName)
	engine.Wait()

	Logger.Debug("run complete", "shortcut", idOrName, "outcome", event.String())
	if event.Kind == feedback.KindFailure {
		return fmt.Errorf("shortcut %s failed: %s", idOrName, event.Message)
	}
	return nil
}
