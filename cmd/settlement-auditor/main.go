package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"payment-gateway/internal/adapters/messaging/kafka"
	"payment-gateway/internal/adapters/storage/clickhouse"
	"payment-gateway/internal/adapters/storage/redis"
	"payment-gateway/internal/audit"
	"payment-gateway/internal/config"
	"payment-gateway/internal/observability"
)

const (
	consumerGroup = "settlement-auditor"
	dedupTTL      = 24 * time.Hour
)

func main() {
	// --- Configuration Setup ---
	cfg, err := config.Load(configPath())
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("settlement auditor starting", "env", cfg.App.Env, "topic", cfg.Kafka.Topic)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Component Initialization ---
	brokers := cfg.KafkaBrokers()

	dlq, err := kafka.NewDeadLetterProducer(brokers, cfg.Kafka.DLQTopic)
	if err != nil {
		logger.Error("failed to create Kafka producer for DLQ", "error", err)
		os.Exit(1)
	}
	defer dlq.Close()

	chConn, err := clickhouse.Open(ctx, cfg.ClickHouse)
	if err != nil {
		logger.Error("failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := chConn.Close(); err != nil {
			logger.Error("failed to close ClickHouse connection", "error", err)
		}
	}()

	sink := clickhouse.NewSettlementAudit(chConn)
	if err := sink.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare audit table", "error", err)
		os.Exit(1)
	}

	// Redelivered events are skipped when Redis is available.
	var dedup audit.Deduplicator
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, duplicate events rely on ReplacingMergeTree", "error", err)
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Error("failed to close redis connection", "error", err)
				}
			}()
			dedup = redis.NewEventDeduplicator(rdb, dedupTTL)
		}
	}

	auditor := audit.NewAuditor(sink, dedup, logger)

	consumer, err := kafka.NewConsumer(brokers, consumerGroup, cfg.Kafka.Topic, logger)
	if err != nil {
		logger.Error("failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	// --- Application Start ---
	logger.Info("settlement auditor ready")

	err = consumer.Run(ctx, func(ctx context.Context, record *kgo.Record) {
		v := auditor.Handle(ctx, record.Value)
		switch v.Outcome {
		case audit.Stored:
			logger.Info("settlement audited", "payment_id", v.PaymentID, "offset", record.Offset)
		case audit.Duplicate:
			logger.Debug("duplicate settlement event skipped", "payment_id", v.PaymentID)
		case audit.Rejected, audit.Failed:
			logger.Error("sending settlement event to DLQ",
				"reason", v.Reason,
				"payment_id", v.PaymentID,
				"partition", record.Partition,
				"offset", record.Offset,
				"error", v.Err,
			)
			if err := dlq.Send(ctx, record, v.Reason, v.Err.Error()); err != nil {
				logger.Error("failed to write to DLQ, message dropped", "error", err, "offset", record.Offset)
			}
		}
	})
	if err != nil {
		logger.Error("consumer stopped", "error", err)
	}

	logger.Info("settlement auditor stopping...")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}
