package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"payment-gateway/internal/bootstrap"
	"payment-gateway/internal/config"
	"payment-gateway/internal/observability"
	"payment-gateway/internal/settlement"
)

func main() {
	var (
		configPath string
		once       bool
		workers    int
	)

	rootCmd := &cobra.Command{
		Use:   "settlement-worker",
		Short: "Settle processing payments whose settlement delay has elapsed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("workers") {
				cfg.Settlement.Workers = workers
			}

			logger := observability.SetupLogger(cfg.App.Env)
			if cfg.Storage.Driver == config.DriverMemory {
				logger.Warn("standalone worker with in-memory storage sees no jobs from the gateway")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			broker, err := bootstrap.OpenBroker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := broker.Close(); err != nil {
					logger.Warn("failed to close message broker", "error", err)
				}
			}()

			worker := settlement.NewWorker(
				storage.Jobs,
				storage.Payments,
				broker,
				settlement.NewPolicy(cfg.Settlement),
				settlement.WorkerConfig{
					Workers:      cfg.Settlement.Workers,
					PollInterval: cfg.Settlement.PollInterval(),
					BatchSize:    cfg.Settlement.BatchSize,
				},
				logger,
			)

			if once {
				n, err := worker.ProcessDue(ctx)
				logger.Info("settled due payments", "count", n)
				return err
			}
			return worker.Run(ctx)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the config file")
	rootCmd.Flags().BoolVar(&once, "once", false, "Settle everything currently due and exit")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Override settlement.workers")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
