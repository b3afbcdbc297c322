package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rocketship-ai/shortcuts/internal/pipeline"
	"github.com/rocketship-ai/shortcuts/internal/platform"
	"github.com/rocketship-ai/shortcuts/internal/request"
	"github.com/rocketship-ai/shortcuts/internal/script"
	"github.com/rocketship-ai/shortcuts/internal/store"
)

// rootOptions carries state shared by every subcommand
type rootOptions struct {
	viper      *viper.Viper
	configFile string
	cfg        *Config
}

// NewRootCmd creates a new root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "shortcuts",
		Short: "Shortcuts CLI",
		Long:  `Shortcuts runs saved HTTP request shortcuts with variables and scripts from the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				_ = os.Setenv("SHORTCUTS_LOG", "DEBUG")
			}
			InitLogging()

			cfg, err := LoadConfig(opts.viper, opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging")
	flags.StringVar(&opts.configFile, "config", "", "Config file (default is shortcuts.yaml in the user config directory)")
	flags.String("store-driver", "", "Store driver (sqlite, postgres, pgx, mysql)")
	flags.String("store-dsn", "", "Store data source name")
	_ = opts.viper.BindPFlag("store.driver", flags.Lookup("store-driver"))
	_ = opts.viper.BindPFlag("store.dsn", flags.Lookup("store-dsn"))

	cmd.AddCommand(
		NewRunCmd(opts),
		NewValidateCmd(),
		NewImportCmd(opts),
		NewExportCmd(opts),
		NewListCmd(opts),
		NewVarsCmd(opts),
		NewVersionCmd(),
	)

	return cmd
}

func (o *rootOptions) openStore(ctx context.Context) (store.Store, error) {
	dsn, err := o.cfg.storeDSN()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, o.cfg.Store.Driver, dsn, Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func (o *rootOptions) newEngine(st store.Store, presenter pipeline.Presenter) *pipeline.Engine {
	monitor := platform.NewProbeMonitor(o.cfg.Connectivity.ProbeAddress, o.cfg.Connectivity.Interval, Logger)
	return pipeline.New(st, presenter, platform.NewLocal(monitor, Logger),
		pipeline.WithExecutor(script.NewJavaScriptExecutor(script.WithMaxWait(o.cfg.Scripts.MaxWait), script.WithLogger(Logger))),
		pipeline.WithClient(request.NewClient(request.WithMaxBodyBytes(o.cfg.HTTP.MaxBodyBytes), request.WithLogger(Logger))),
		pipeline.WithConfig(o.cfg.engineConfig()),
		pipeline.WithLogger(Logger),
	)
}
