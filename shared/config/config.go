package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	TransportAWS    = "aws"
	TransportMemory = "memory"

	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	ServiceName string     `mapstructure:"service_name"`
	Env         string     `mapstructure:"env"`
	Port        string     `mapstructure:"port"`
	LogLevel    string     `mapstructure:"log_level"`
	Transport   string     `mapstructure:"transport"`
	Store       Store      `mapstructure:"store"`
	Database    Database   `mapstructure:"database"`
	AWS         AWS        `mapstructure:"aws"`
	Redis       Redis      `mapstructure:"redis"`
	Telemetry   Telemetry  `mapstructure:"telemetry"`
	Capture     Capture    `mapstructure:"capture"`
	Subscriber  Subscriber `mapstructure:"subscriber"`
}

// MigratedTables are the table names the embedded PostgreSQL migrations create.
var MigratedTables = Tables{
	Orders:        "orders",
	Invoices:      "invoices",
	Payments:      "payments",
	Shipments:     "shipments",
	Notifications: "notification_logs",
}

// SQS caps a single receive at 10 messages and long polling at 20 seconds.
const (
	maxReceiveMessages = 10
	maxWaitTimeSeconds = 20
)

type Store struct {
	Driver string `mapstructure:"driver"`
	Tables Tables `mapstructure:"tables"`
}

type Tables struct {
	Orders        string `mapstructure:"orders"`
	Invoices      string `mapstructure:"invoices"`
	Payments      string `mapstructure:"payments"`
	Shipments     string `mapstructure:"shipments"`
	Notifications string `mapstructure:"notifications"`
}

type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AWS struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Topics          Topics `mapstructure:"topics"`
	Queues          Queues `mapstructure:"queues"`
}

// Topics holds one SNS topic ARN per saga topic.
type Topics struct {
	Order          string `mapstructure:"order"`
	Invoice        string `mapstructure:"invoice"`
	PaymentSuccess string `mapstructure:"payment_success"`
	Shipment       string `mapstructure:"shipment"`
	Error          string `mapstructure:"error"`
}

// Queues holds the SQS queue URL each stage consumes from.
type Queues struct {
	Invoice      string `mapstructure:"invoice"`
	Payment      string `mapstructure:"payment"`
	Shipment     string `mapstructure:"shipment"`
	Notification string `mapstructure:"notification"`
}

type Redis struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Capture configures the simulated payment capture.
type Capture struct {
	Outcome string        `mapstructure:"outcome"`
	Latency time.Duration `mapstructure:"latency"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Subscriber struct {
	Readers           int   `mapstructure:"readers"`
	Workers           int   `mapstructure:"workers"`
	MaxMessages       int32 `mapstructure:"max_messages"`
	WaitTimeSeconds   int32 `mapstructure:"wait_time_seconds"`
	VisibilityTimeout int32 `mapstructure:"visibility_timeout"`
}

// ReadConfig loads <ENVIRONMENT>.json from this directory when present and
// applies SAGA_* environment overrides on top of the defaults.
func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}
	return Load(filepath.Dir(filename), getConfigName())
}

// Load reads the named JSON config from dir. A missing file is not an error.
func Load(dir, name string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SAGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-saga")
	v.SetDefault("env", getEnv("ENV", "local"))
	v.SetDefault("port", getEnv("PORT", "8080"))
	v.SetDefault("log_level", "info")
	v.SetDefault("transport", TransportAWS)

	v.SetDefault("store.driver", StoreDynamoDB)
	v.SetDefault("store.tables.orders", MigratedTables.Orders)
	v.SetDefault("store.tables.invoices", MigratedTables.Invoices)
	v.SetDefault("store.tables.payments", MigratedTables.Payments)
	v.SetDefault("store.tables.shipments", MigratedTables.Shipments)
	v.SetDefault("store.tables.notifications", MigratedTables.Notifications)

	v.SetDefault("database.url", os.Getenv("DATABASE_URL"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "order_saga")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	v.SetDefault("aws.endpoint", os.Getenv("AWS_ENDPOINT_URL"))
	v.SetDefault("aws.access_key_id", os.Getenv("AWS_ACCESS_KEY_ID"))
	v.SetDefault("aws.secret_access_key", os.Getenv("AWS_SECRET_ACCESS_KEY"))
	v.SetDefault("aws.topics.order", "")
	v.SetDefault("aws.topics.invoice", "")
	v.SetDefault("aws.topics.payment_success", "")
	v.SetDefault("aws.topics.shipment", "")
	v.SetDefault("aws.topics.error", "")
	v.SetDefault("aws.queues.invoice", "")
	v.SetDefault("aws.queues.payment", "")
	v.SetDefault("aws.queues.shipment", "")
	v.SetDefault("aws.queues.notification", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", getEnv("REDIS_URL", "redis://localhost:6379/0"))
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.otlp_endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	v.SetDefault("capture.outcome", "PAID")
	v.SetDefault("capture.latency", "0s")
	v.SetDefault("capture.timeout", "10s")

	v.SetDefault("subscriber.readers", 1)
	v.SetDefault("subscriber.workers", 4)
	v.SetDefault("subscriber.max_messages", 10)
	v.SetDefault("subscriber.wait_time_seconds", 20)
	v.SetDefault("subscriber.visibility_timeout", 30)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportAWS, TransportMemory:
	default:
		return errors.Errorf("unknown transport %q", c.Transport)
	}

	switch c.Store.Driver {
	case StoreDynamoDB, StoreMemory:
	case StorePostgres:
		if c.Store.Tables != MigratedTables {
			return errors.Errorf("store.tables must match the migrated tables %+v for the postgres driver", MigratedTables)
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Capture.Timeout <= 0 {
		return errors.New("capture.timeout must be positive")
	}

	if c.Transport == TransportAWS {
		if err := c.Subscriber.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the SQS polling settings.
func (s Subscriber) Validate() error {
	if s.Readers < 1 {
		return errors.New("subscriber.readers must be at least 1")
	}
	if s.Workers < 1 {
		return errors.New("subscriber.workers must be at least 1")
	}
	if s.MaxMessages < 1 || s.MaxMessages > maxReceiveMessages {
		return errors.Errorf("subscriber.max_messages must be between 1 and %d", maxReceiveMessages)
	}
	if s.WaitTimeSeconds < 0 || s.WaitTimeSeconds > maxWaitTimeSeconds {
		return errors.Errorf("subscriber.wait_time_seconds must be between 0 and %d", maxWaitTimeSeconds)
	}
	if s.VisibilityTimeout < 0 {
		return errors.New("subscriber.visibility_timeout must not be negative")
	}
	return nil
}

// GetDatabaseURL returns database.url when set, otherwise it is built from
// the individual fields.
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
