// Package main is the entry point for the gym cash back-office.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/caja-gym/internal/config"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg is loaded once per invocation by the root PersistentPreRunE.
var cfg *config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "caja-gym",
		Short:         "Gym cash back-office API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			logger.SetLevel(cfg.LogLevel)
			logger.SetFormat(cfg.LogFormat)
			return logger.InitHashSalt(cfg.LogHashSalt)
		},
		RunE: runServe,
	}

	root.PersistentFlags().String("database-url", "", "PostgreSQL connection string (env DATABASE_URL)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().String("log-format", "", "log format: console or json (env LOG_FORMAT)")

	// Flags only win when set explicitly; otherwise env and defaults apply.
	_ = viper.BindPFlag("database_url", root.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(createUserCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "caja-gym %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
