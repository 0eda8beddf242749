package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"payment-gateway/internal/adapters/messaging/kafka"
	"payment-gateway/internal/config"
	"payment-gateway/internal/observability"
)

func main() {
	var (
		configPath   string
		kafkaBrokers string
		dlqTopic     string
	)

	rootCmd := &cobra.Command{Use: "dlq-tool", Short: "Inspect and replay dead-lettered settlement events"}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&kafkaBrokers, "brokers", "", "Kafka brokers, defaults to kafka.bootstrap_servers")
	rootCmd.PersistentFlags().StringVar(&dlqTopic, "dlq-topic", "", "DLQ topic, defaults to kafka.dlq_topic")

	// settings resolves flags against the config file.
	settings := func() (*config.Config, []string, string, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, "", fmt.Errorf("load config: %w", err)
		}
		brokers := cfg.KafkaBrokers()
		if kafkaBrokers != "" {
			brokers = strings.Split(kafkaBrokers, ",")
		}
		topic := cfg.Kafka.DLQTopic
		if dlqTopic != "" {
			topic = dlqTopic
		}
		return cfg, brokers, topic, nil
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Show messages in the DLQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg, brokers, topic, err := settings()
			if err != nil {
				return err
			}
			logger := observability.SetupLogger(cfg.App.Env)
			logger.Info("viewing DLQ messages", "topic", topic, "limit", limit)

			client, err := kgo.NewClient(
				kgo.SeedBrokers(brokers...),
				kgo.ConsumeTopics(topic),
				kgo.FetchMaxWait(5*time.Second),
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			if err != nil {
				return fmt.Errorf("create consumer: %w", err)
			}
			defer client.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PARTITION:OFFSET\tPAYMENT\tERROR_TYPE\tORIGINAL_TOPIC\tERROR_STRING")

			seen := 0
			for seen < limit {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				fetches := client.PollFetches(ctx)
				cancel()
				if fetches.IsClientClosed() || len(fetches.Records()) == 0 {
					logger.Info("no more messages in topic")
					break
				}
				fetches.EachRecord(func(record *kgo.Record) {
					if seen >= limit {
						return
					}
					errorType, errorString, from := kafka.ErrorHeaders(record.Headers)
					fmt.Fprintf(w, "%d:%d\t%s\t%s\t%s\t%s\n", record.Partition, record.Offset, record.Key, errorType, from, errorString)
					seen++
				})
			}
			return w.Flush()
		},
	}
	viewCmd.Flags().Int("limit", 10, "Number of messages to show")

	retryCmd := &cobra.Command{
		Use:   "retry [partition:offset]",
		Short: "Replay one DLQ message onto its original topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partition, offset, err := kafka.ParsePartitionOffset(args[0])
			if err != nil {
				return err
			}
			cfg, brokers, topic, err := settings()
			if err != nil {
				return err
			}
			logger := observability.SetupLogger(cfg.App.Env)

			consumer, err := kgo.NewClient(
				kgo.SeedBrokers(brokers...),
				kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
					topic: {partition: kgo.NewOffset().At(offset)},
				}),
			)
			if err != nil {
				return fmt.Errorf("create consumer: %w", err)
			}
			defer consumer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			fetches := consumer.PollRecords(ctx, 1)
			if err := fetches.Err(); err != nil {
				return fmt.Errorf("read message: %w", err)
			}
			records := fetches.Records()
			if len(records) == 0 || records[0].Offset != offset {
				return fmt.Errorf("no message at %d:%d in %s", partition, offset, topic)
			}

			target, _ := cmd.Flags().GetString("target-topic")
			if target == "" {
				_, _, target = kafka.ErrorHeaders(records[0].Headers)
				if target == "N/A" {
					target = cfg.Kafka.Topic
				}
			}

			producer, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
			if err != nil {
				return fmt.Errorf("create producer: %w", err)
			}
			defer producer.Close()

			if err := producer.ProduceSync(ctx, kafka.RetryRecord(target, records[0])).FirstErr(); err != nil {
				return fmt.Errorf("replay message: %w", err)
			}
			logger.Info("message replayed", "from_topic", topic, "partition", partition, "offset", offset, "to_topic", target)
			return nil
		},
	}
	retryCmd.Flags().String("target-topic", "", "Topic to replay onto, defaults to the original topic")

	rootCmd.AddCommand(viewCmd, retryCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
