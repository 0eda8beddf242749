package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"payment-gateway/internal/core/domain"
)

// Broker is an implementation of the MessageBroker port for Kafka.
type Broker struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBroker creates a new Kafka broker instance and checks connectivity.
func NewBroker(ctx context.Context, bootstrapServers []string, topic string, logger *slog.Logger) (*Broker, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Broker{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// SettledRecord encodes a settlement event as a Kafka record keyed by
// payment id, so every event for one payment lands on one partition.
func SettledRecord(topic string, ev domain.PaymentSettled) (*kgo.Record, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settlement event: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(ev.PaymentID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte("payment.settled")},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}, nil
}

// PublishPaymentSettled sends the event asynchronously. Delivery failures
// are logged from the produce callback.
func (b *Broker) PublishPaymentSettled(ctx context.Context, ev domain.PaymentSettled) error {
	record, err := SettledRecord(b.topic, ev)
	if err != nil {
		return err
	}

	b.wg.Add(1)
	b.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer b.wg.Done()
		if err != nil {
			b.logger.Error("failed to deliver message to kafka", "topic", r.Topic, "payment_id", ev.PaymentID, "error", err)
			return
		}
		b.logger.Debug("message delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
	})

	return nil
}

// Ping checks broker connectivity.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

// Close waits for in-flight deliveries and stops the producer.
func (b *Broker) Close() error {
	b.logger.Info("waiting for kafka deliveries to finish...")
	b.wg.Wait()
	b.client.Close()
	b.logger.Info("kafka client stopped")
	return nil
}
