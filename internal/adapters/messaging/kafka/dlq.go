package kafka

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Dead-letter record headers.
const (
	HeaderErrorType     = "error_type"
	HeaderErrorString   = "error_string"
	HeaderOriginalTopic = "original_topic"
)

// DeadLetterRecord copies original into the DLQ topic with failure metadata.
func DeadLetterRecord(dlqTopic string, original *kgo.Record, errorType, errorString string) *kgo.Record {
	return &kgo.Record{
		Topic: dlqTopic,
		Key:   original.Key,
		Value: original.Value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderErrorType, Value: []byte(errorType)},
			{Key: HeaderErrorString, Value: []byte(errorString)},
			{Key: HeaderOriginalTopic, Value: []byte(original.Topic)},
		},
	}
}

// ErrorHeaders extracts the failure metadata from a DLQ record. Missing
// headers read as "N/A".
func ErrorHeaders(headers []kgo.RecordHeader) (errorType, errorString, originalTopic string) {
	errorType, errorString, originalTopic = "N/A", "N/A", "N/A"
	for _, h := range headers {
		switch h.Key {
		case HeaderErrorType:
			errorType = string(h.Value)
		case HeaderErrorString:
			errorString = string(h.Value)
		case HeaderOriginalTopic:
			originalTopic = string(h.Value)
		}
	}
	return errorType, errorString, originalTopic
}

// RetryRecord strips DLQ metadata so the message can be replayed on topic.
func RetryRecord(topic string, dead *kgo.Record) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   dead.Key,
		Value: dead.Value,
	}
}

// ParsePartitionOffset parses "partition:offset", e.g. "0:123".
func ParsePartitionOffset(arg string) (int32, int64, error) {
	partStr, offStr, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid format %q, expected partition:offset, e.g. 0:123", arg)
	}
	partition, err := strconv.ParseInt(partStr, 10, 32)
	if err != nil || partition < 0 {
		return 0, 0, fmt.Errorf("invalid partition %q", partStr)
	}
	offset, err := strconv.ParseInt(offStr, 10, 64)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset %q", offStr)
	}
	return int32(partition), offset, nil
}

// DeadLetterProducer writes rejected messages to the DLQ topic.
type DeadLetterProducer struct {
	client *kgo.Client
	topic  string
}

func NewDeadLetterProducer(bootstrapServers []string, topic string) (*DeadLetterProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrapServers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka DLQ producer: %w", err)
	}
	return &DeadLetterProducer{client: client, topic: topic}, nil
}

// Send writes synchronously so the DLQ copy exists before offsets commit.
func (p *DeadLetterProducer) Send(ctx context.Context, original *kgo.Record, errorType, errorString string) error {
	record := DeadLetterRecord(p.topic, original, errorType, errorString)
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to write to DLQ %s: %w", p.topic, err)
	}
	return nil
}

func (p *DeadLetterProducer) Close() {
	p.client.Close()
}
