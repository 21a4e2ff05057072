// Command stockctl runs maintenance tasks against the stockroom database:
// migrations, admin seeding, backups, product spreadsheets and reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stockroom/internal/app"
	"stockroom/internal/config"
	"stockroom/pkg/logger"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "stockctl",
		Short:         "Maintenance tool for the stockroom database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a config file (default ./stockroom.yaml when present)")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newBackupCmd(),
		newProductsCmd(),
		newReportsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp loads configuration, connects and runs fn with settings loaded.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(cmd.Context(), log)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.LoadSettings(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}
