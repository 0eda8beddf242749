package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SettlementConfig controls how and when processing payments are resolved.
type SettlementConfig struct {
	TestMode              bool `yaml:"test_mode"`
	TestPaymentSuccess    bool `yaml:"test_payment_success"`
	TestProcessingDelayMs int  `yaml:"test_processing_delay_ms"`
	MinDelayMs            int  `yaml:"min_delay_ms"`
	MaxDelayMs            int  `yaml:"max_delay_ms"`
	Workers               int  `yaml:"workers"`
	PollIntervalMs        int  `yaml:"poll_interval_ms"`
	BatchSize             int  `yaml:"batch_size"`
	EmbeddedWorker        bool `yaml:"embedded_worker"`
}

func (s SettlementConfig) TestProcessingDelay() time.Duration {
	return time.Duration(s.TestProcessingDelayMs) * time.Millisecond
}

func (s SettlementConfig) MinDelay() time.Duration {
	return time.Duration(s.MinDelayMs) * time.Millisecond
}

func (s SettlementConfig) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelayMs) * time.Millisecond
}

func (s SettlementConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

// ClickHouseConfig is shared by the auditor and the CLI tools.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SeedConfig describes the merchant created at startup.
type SeedConfig struct {
	MerchantID    string `yaml:"merchant_id"`
	MerchantName  string `yaml:"merchant_name"`
	MerchantEmail string `yaml:"merchant_email"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
}

type Config struct {
	App struct {
		Env                 string `yaml:"env"`
		ExposeTestEndpoints bool   `yaml:"expose_test_endpoints"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Postgres struct {
		DSN           string `yaml:"dsn"`
		RunMigrations bool   `yaml:"run_migrations"`
	} `yaml:"postgres"`
	Redis struct {
		Addr              string `yaml:"addr"`
		RateLimit         int    `yaml:"rate_limit"`
		RateWindowSeconds int    `yaml:"rate_window_seconds"`
	} `yaml:"redis"`
	Broker struct {
		Kind string `yaml:"kind"`
	} `yaml:"broker"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
		DLQTopic         string `yaml:"dlq_topic"`
	} `yaml:"kafka"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Jaeger struct {
		Port string `yaml:"port"`
	} `yaml:"jaeger"`
	JWT struct {
		Secret          string `yaml:"secret"`
		TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	} `yaml:"jwt"`
	Settlement SettlementConfig `yaml:"settlement"`
	Payments   struct {
		AllowMultiplePerOrder *bool `yaml:"allow_multiple_per_order"`
	} `yaml:"payments"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	CORS       struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`
	Seed SeedConfig `yaml:"seed"`
}

const defaultTestProcessingDelayMs = 5000

// Storage drivers and broker kinds.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerLog      = "log"
)

// Load reads an optional .env file, then the YAML config at configPath with
// environment variables substituted, then applies env overrides and defaults.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(file)
}

// Parse builds a Config from raw YAML.
func Parse(raw []byte) (*Config, error) {
	// Zero is a valid test delay, so its default is set before the YAML
	// and env are applied rather than in applyDefaults.
	config := &Config{Settlement: SettlementConfig{TestProcessingDelayMs: defaultTestProcessingDelayMs}}

	// First, we substitute environment variables into the raw YAML file.
	expandedFile := os.ExpandEnv(string(raw))

	if err := yaml.Unmarshal([]byte(expandedFile), config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// AllowMultiplePaymentsPerOrder defaults to true.
func (c *Config) AllowMultiplePaymentsPerOrder() bool {
	if c.Payments.AllowMultiplePerOrder == nil {
		return true
	}
	return *c.Payments.AllowMultiplePerOrder
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TokenTTLMinutes) * time.Minute
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Redis.RateWindowSeconds) * time.Second
}

// KafkaBrokers splits the comma-separated bootstrap server list.
func (c *Config) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(c.Kafka.BootstrapServers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// applyEnvOverrides lets test harnesses make settlement deterministic
// without touching the config file.
func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("TEST_MODE"); ok {
		c.Settlement.TestMode = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := os.LookupEnv("TEST_PAYMENT_SUCCESS"); ok {
		c.Settlement.TestPaymentSuccess = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := os.LookupEnv("TEST_PROCESSING_DELAY"); ok && strings.TrimSpace(v) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid TEST_PROCESSING_DELAY %q: %w", v, err)
		}
		c.Settlement.TestProcessingDelayMs = ms
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8000"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	if c.Broker.Kind == "" {
		c.Broker.Kind = BrokerLog
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "payments.settled"
	}
	if c.Kafka.DLQTopic == "" {
		c.Kafka.DLQTopic = c.Kafka.Topic + ".dlq"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "payments.settled"
	}
	if c.Redis.RateLimit == 0 {
		c.Redis.RateLimit = 100
	}
	if c.Redis.RateWindowSeconds == 0 {
		c.Redis.RateWindowSeconds = 60
	}
	if c.JWT.TokenTTLMinutes == 0 {
		c.JWT.TokenTTLMinutes = 60
	}

	s := &c.Settlement
	if s.MinDelayMs == 0 {
		s.MinDelayMs = 5000
	}
	if s.MaxDelayMs == 0 {
		s.MaxDelayMs = 10000
	}
	if s.Workers == 0 {
		s.Workers = 4
	}
	if s.PollIntervalMs == 0 {
		s.PollIntervalMs = 250
	}
	if s.BatchSize == 0 {
		s.BatchSize = 32
	}

	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	if c.Seed.MerchantID == "" {
		c.Seed.MerchantID = "550e8400-e29b-41d4-a716-446655440000"
	}
	if c.Seed.MerchantName == "" {
		c.Seed.MerchantName = "Test Merchant"
	}
	if c.Seed.MerchantEmail == "" {
		c.Seed.MerchantEmail = "test@example.com"
	}
	if c.Seed.APIKey == "" {
		c.Seed.APIKey = "key_test_abc123"
	}
	if c.Seed.APISecret == "" {
		c.Seed.APISecret = "secret_test_xyz789"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres storage driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Broker.Kind {
	case BrokerKafka, BrokerRabbitMQ, BrokerLog:
	default:
		return fmt.Errorf("unknown broker kind %q", c.Broker.Kind)
	}

	if c.Settlement.TestProcessingDelayMs < 0 {
		return fmt.Errorf("test processing delay (%d ms) is negative", c.Settlement.TestProcessingDelayMs)
	}
	if c.Settlement.MaxDelayMs < c.Settlement.MinDelayMs {
		return fmt.Errorf("settlement.max_delay_ms (%d) is below min_delay_ms (%d)", c.Settlement.MaxDelayMs, c.Settlement.MinDelayMs)
	}
	return nil
}
