// Package bootstrap opens the storage and broker backends selected in
// configuration. It is shared by the gateway and the settlement worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"payment-gateway/internal/adapters/messaging/kafka"
	"payment-gateway/internal/adapters/messaging/logbroker"
	"payment-gateway/internal/adapters/messaging/rabbitmq"
	"payment-gateway/internal/adapters/storage/memory"
	"payment-gateway/internal/adapters/storage/postgres"
	"payment-gateway/internal/config"
	"payment-gateway/internal/core/ports"
)

// Storage bundles the repositories of one backend.
type Storage struct {
	Driver    string
	Merchants ports.MerchantRepository
	Orders    ports.OrderRepository
	Payments  ports.PaymentRepository
	Jobs      ports.SettlementJobRepository
	Ping      func(ctx context.Context) error
	close     func()
}

// Close releases the backend connections.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects to the configured storage driver, running migrations
// first when enabled.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Storage{
			Driver:    config.DriverMemory,
			Merchants: store.Merchants(),
			Orders:    store.Orders(),
			Payments:  store.Payments(),
			Jobs:      store.Jobs(),
			Ping:      store.Ping,
		}, nil

	case config.DriverPostgres:
		if cfg.Postgres.RunMigrations {
			if err := postgres.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to PostgreSQL")
		return &Storage{
			Driver:    config.DriverPostgres,
			Merchants: postgres.NewMerchantRepository(pool),
			Orders:    postgres.NewOrderRepository(pool),
			Payments:  postgres.NewPaymentRepository(pool),
			Jobs:      postgres.NewSettlementJobRepository(pool),
			Ping:      pool.Ping,
			close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Broker is a MessageBroker that owns a connection.
type Broker interface {
	ports.MessageBroker
	Close() error
}

// OpenBroker connects to the configured settlement event broker.
func OpenBroker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Broker, error) {
	switch cfg.Broker.Kind {
	case config.BrokerKafka:
		b, err := kafka.NewBroker(ctx, cfg.KafkaBrokers(), cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("kafka broker created", "topic", cfg.Kafka.Topic)
		return b, nil
	case config.BrokerRabbitMQ:
		b, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("rabbitmq publisher created", "queue", cfg.RabbitMQ.Queue)
		return b, nil
	case config.BrokerLog:
		return logbroker.NewBroker(logger), nil
	}
	return nil, fmt.Errorf("unknown broker kind %q", cfg.Broker.Kind)
}
