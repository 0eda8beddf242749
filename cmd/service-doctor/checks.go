package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"

	"payment-gateway/internal/config"
)

// Check describes one diagnostic check.
type Check struct {
	Name     string
	Func     func(ctx context.Context) error
	Error    error
	Duration time.Duration
}

// runChecks runs every check concurrently and records the results in place.
func runChecks(ctx context.Context, checks []Check) {
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(c *Check) {
			defer wg.Done()
			start := time.Now()
			c.Error = c.Func(ctx)
			c.Duration = time.Since(start)
		}(&checks[i])
	}
	wg.Wait()
}

// report prints one line per check and reports whether all passed.
func report(w io.Writer, checks []Check) bool {
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	healthy := true
	for _, c := range checks {
		took := c.Duration.Round(time.Millisecond)
		if c.Error == nil {
			fmt.Fprintf(w, "[%s] %-25s (took %v)\n", ok("OK"), c.Name, took)
			continue
		}
		healthy = false
		fmt.Fprintf(w, "[%s] %-25s (took %v) - error: %v\n", failed("FAILED"), c.Name, took, c.Error)
	}
	return healthy
}

func checkHTTPHealth(ctx context.Context, url string, logger *slog.Logger) error {
	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close HTTP response", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func checkPostgres(ctx context.Context, dsn string, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Error("failed to close Postgres connection", "error", err)
		}
	}()
	return conn.Ping(ctx)
}

const stuckSettlementsSQL = `
SELECT count(*) FROM settlement_jobs
WHERE completed_at IS NULL AND claimed_at IS NOT NULL AND claimed_at < $1`

// checkStuckSettlements fails when claimed jobs were never completed. Such
// payments stay processing until someone intervenes.
func checkStuckSettlements(ctx context.Context, dsn string, grace time.Duration, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Error("failed to close Postgres connection", "error", err)
		}
	}()

	var stuck int64
	if err := conn.QueryRow(ctx, stuckSettlementsSQL, time.Now().Add(-grace)).Scan(&stuck); err != nil {
		return err
	}
	if stuck > 0 {
		return fmt.Errorf("%d settlement jobs claimed more than %v ago are not completed", stuck, grace)
	}
	return nil
}

func checkRedis(ctx context.Context, addr string, logger *slog.Logger) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close Redis", "error", err)
		}
	}()
	return rdb.Ping(ctx).Err()
}

func checkKafka(ctx context.Context, brokers []string) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DialTimeout(5*time.Second),
	)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Ping(ctx)
}

func checkRabbitMQ(url string, logger *slog.Logger) error {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close RabbitMQ connection", "error", err)
		}
	}()
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	return ch.Close()
}

func checkClickHouse(ctx context.Context, cfg config.ClickHouseConfig, logger *slog.Logger) error {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close ClickHouse connection", "error", err)
		}
	}()
	return conn.Ping(ctx)
}
