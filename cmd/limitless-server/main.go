package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Next-Gen-Coders/limitless-server/pkg/config"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
	"github.com/Next-Gen-Coders/limitless-server/pkg/server"
)

func main() {
	root := &cobra.Command{
		Use:   "limitless-server",
		Short: "DeFi AI assistant backend",
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := logger.New(&logger.Config{Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer log.Sync()

			database, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			if err := db.RunMigrations(database); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, database, log).Start(ctx)
		},
	}
}
