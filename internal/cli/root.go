// Package cli implements the b3sentinel command tree.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"B3Sentinel/internal/config"
	"B3Sentinel/internal/logger"
)

// app is the state shared by every subcommand after flags are parsed.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	version string
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	var (
		cfgPath  string
		offline  bool
		logLevel string
		pretty   bool
	)

	rootCmd := &cobra.Command{
		Use:           "b3sentinel",
		Short:         "B3 equities and FII screening, scoring and allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `b3sentinel screens B3 stocks and real-estate funds by liquidity, yield and
valuation, scores the survivors and sizes a purchase for the cash you have.
It can also rebalance an existing portfolio against income/growth targets.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if offline {
				cfg.Providers.Offline = true
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if pretty {
				cfg.Log.Pretty = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			logger.SetGlobalLogger(a.log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use built-in demo data instead of live providers")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable logs")

	rootCmd.AddCommand(newScreenCmd(a))
	rootCmd.AddCommand(newRebalanceCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version needs no config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "b3sentinel %s\n", a.version)
		},
	}
}
