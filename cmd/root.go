package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/config"
)

var cfg *config.Config

// globalFlags are the persistent flags every subcommand inherits. A flag the
// user sets wins over config.yaml and DIMFREIGHT_* variables.
type globalFlags struct {
	configPath string
	store      string
	logLevel   string
}

var rootFlags globalFlags

func (f *globalFlags) register(c *cobra.Command) {
	pf := c.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default ./config.yaml when present)")
	pf.StringVar(&f.store, "store", "", "store driver override: postgres, sqlite or memory")
	pf.StringVar(&f.logLevel, "log-level", "", "log level override")
}

// apply copies the flags set on cmd's command line onto c.
func (f *globalFlags) apply(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("store") {
		c.Store.Driver = f.store
	}
	if fs.Changed("log-level") {
		c.Log.Level = f.logLevel
	}
}

var rootCmd = &cobra.Command{
	Use:          "dimfreight",
	Short:        "Carton volume, dimension and freight resolution engine",
	Long:         "Reconciles packaging observations, estimates shipping cartons from product facts, resolves per-SKU dimensions and prices freight.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(rootFlags.configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		rootFlags.apply(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootFlags.register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
