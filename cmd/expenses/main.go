package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/config"
)

var version = "dev"

// app carries the state shared by every command of one invocation.
type app struct {
	viper    *viper.Viper
	progress io.Writer
	cfgFile  string
	cfg      config.Config
	seeded   bool // set when initStorage seeded an empty database
}

func newRootCmd() *cobra.Command {
	a := &app{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "expenses",
		Short: "💸 Monthly expense tracker",
		Long: `expenses turns bank notification text messages and OFX statements into
purchases, groups them into monthly per-currency reports and lets you
browse and recategorize them in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/expenses/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: "+config.DefaultDatabasePath+")")

	// Bind flags to viper
	_ = a.viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = a.viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = a.viper.BindPFlag(config.KeyDatabasePath, rootCmd.PersistentFlags().Lookup("db"))

	// Add commands
	rootCmd.AddCommand(initCmd(a))
	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(importCmd(a))
	rootCmd.AddCommand(addCmd(a))
	rootCmd.AddCommand(reportCmd(a))
	rootCmd.AddCommand(monthsCmd(a))
	rootCmd.AddCommand(browseCmd(a))
	rootCmd.AddCommand(vendorsCmd(a))
	rootCmd.AddCommand(categoriesCmd(a))
	rootCmd.AddCommand(rulesCmd(a))
	rootCmd.AddCommand(sampleCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	// Set up signal handling
	handler := cli.NewInterruptHandler(os.Stderr, "expenses")
	ctx, stop := handler.HandleInterrupts(context.Background())

	err := newRootCmd().ExecuteContext(ctx)
	stop() // Always cleanup

	if err != nil && !handler.WasInterrupted() {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
	if handler.WasInterrupted() {
		os.Exit(130)
	}
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.Init(a.viper, a.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.progress = cmd.ErrOrStderr()

	// Set up logging
	if err := common.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("configuration loaded",
		"database", cfg.DatabasePath,
		"locale", cfg.Locale.String(),
		"timezone", cfg.Location.String(),
		"config_file", a.viper.ConfigFileUsed())
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "expenses %s\n", version)
		},
	}
}
