package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// RecordHandler processes one record. Offsets are committed after every
// polled batch, so a handler must dead-letter what it cannot process.
type RecordHandler func(ctx context.Context, record *kgo.Record)

// Consumer reads a topic as part of a consumer group with manual commits.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewConsumer(bootstrapServers []string, group, topic string, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrapServers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return &Consumer{client: client, logger: logger}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context, handle RecordHandler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}

		fetches.EachError(func(t string, p int32, err error) {
			c.logger.Error("error reading from kafka", "topic", t, "partition", p, "error", err)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			handle(ctx, record)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("error committing offsets", "error", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
