package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"payment-gateway/internal/config"
	"payment-gateway/internal/observability"
)

func main() {
	logger := observability.SetupLogger("development")
	cfg, err := config.Load(configPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	checks := buildChecks(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("Running system diagnostics...")
	runChecks(ctx, checks)

	fmt.Println("\n--- Diagnostics report ---")
	if !report(os.Stdout, checks) {
		fmt.Println("\nDiagnostics found problems.")
		os.Exit(1)
	}
	fmt.Println("\nAll systems nominal!")
}

// buildChecks lists the dependencies this deployment is configured to use.
func buildChecks(cfg *config.Config, logger *slog.Logger) []Check {
	checks := []Check{
		{Name: "Payment Gateway", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, gatewayURL(cfg.Server.Port)+"/health", logger)
		}},
	}

	if cfg.Storage.Driver == config.DriverPostgres {
		checks = append(checks,
			Check{Name: "PostgreSQL", Func: func(ctx context.Context) error {
				return checkPostgres(ctx, cfg.Postgres.DSN, logger)
			}},
			Check{Name: "Stuck settlements", Func: func(ctx context.Context) error {
				return checkStuckSettlements(ctx, cfg.Postgres.DSN, time.Minute, logger)
			}},
		)
	}
	if cfg.Redis.Addr != "" {
		checks = append(checks, Check{Name: "Redis", Func: func(ctx context.Context) error {
			return checkRedis(ctx, cfg.Redis.Addr, logger)
		}})
	}
	if cfg.Broker.Kind == config.BrokerKafka {
		checks = append(checks, Check{Name: "Kafka Cluster", Func: func(ctx context.Context) error {
			return checkKafka(ctx, cfg.KafkaBrokers())
		}})
	}
	if cfg.Broker.Kind == config.BrokerRabbitMQ {
		checks = append(checks, Check{Name: "RabbitMQ", Func: func(ctx context.Context) error {
			return checkRabbitMQ(cfg.RabbitMQ.URL, logger)
		}})
	}
	if cfg.ClickHouse.Addr != "" {
		checks = append(checks, Check{Name: "ClickHouse", Func: func(ctx context.Context) error {
			return checkClickHouse(ctx, cfg.ClickHouse, logger)
		}})
	}
	return checks
}

func gatewayURL(port string) string {
	if len(port) > 0 && port[0] == ':' {
		return "localhost" + port
	}
	return port
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}
