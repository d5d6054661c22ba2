package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "missing")
	require.NoError(t, err)

	assert.Equal(t, "order-saga", cfg.ServiceName)
	assert.Equal(t, TransportAWS, cfg.Transport)
	assert.Equal(t, StoreDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "notification_logs", cfg.Store.Tables.Notifications)
	assert.Equal(t, 10*time.Second, cfg.Capture.Timeout)
	assert.Equal(t, "PAID", cfg.Capture.Outcome)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, int32(10), cfg.Subscriber.MaxMessages)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	body := `{
		"transport": "memory",
		"store": {"driver": "dynamodb", "tables": {"orders": "orders_v2"}},
		"aws": {"topics": {"order": "arn:aws:sns:us-east-1:1:order-events"}},
		"capture": {"outcome": "DECLINED", "latency": "150ms"}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.json"), []byte(body), 0o600))

	t.Setenv("SAGA_PORT", "9090")
	t.Setenv("SAGA_AWS_QUEUES_PAYMENT", "http://localhost:4566/000000000000/payment-stage")
	t.Setenv("SAGA_REDIS_ENABLED", "true")

	cfg, err := Load(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, TransportMemory, cfg.Transport)
	assert.Equal(t, StoreDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "orders_v2", cfg.Store.Tables.Orders)
	assert.Equal(t, "invoices", cfg.Store.Tables.Invoices)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:order-events", cfg.AWS.Topics.Order)
	assert.Equal(t, "DECLINED", cfg.Capture.Outcome)
	assert.Equal(t, 150*time.Millisecond, cfg.Capture.Latency)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:4566/000000000000/payment-stage", cfg.AWS.Queues.Payment)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))

	_, err := Load(dir, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Transport:  TransportAWS,
			Store:      Store{Driver: StoreDynamoDB},
			Capture:    Capture{Timeout: time.Second},
			Subscriber: Subscriber{Readers: 1, Workers: 4, MaxMessages: 10, WaitTimeSeconds: 20, VisibilityTimeout: 30},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Transport = "kafka"
	assert.ErrorContains(t, cfg.Validate(), "unknown transport")

	cfg = valid()
	cfg.Store.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg = valid()
	cfg.Capture.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "capture.timeout")
}

func TestConfig_ValidatePostgresTables(t *testing.T) {
	cfg := &Config{
		Transport: TransportMemory,
		Store:     Store{Driver: StorePostgres, Tables: MigratedTables},
		Capture:   Capture{Timeout: time.Second},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Store.Tables.Orders = "orders_v2"
	assert.ErrorContains(t, cfg.Validate(), "store.tables must match the migrated tables")

	// Other drivers create nothing, so any names are accepted.
	cfg.Store.Driver = StoreDynamoDB
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateSubscriber(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Subscriber)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Subscriber) {}},
		{name: "zero readers", mutate: func(s *Subscriber) { s.Readers = 0 }, wantErr: "subscriber.readers"},
		{name: "zero workers", mutate: func(s *Subscriber) { s.Workers = 0 }, wantErr: "subscriber.workers"},
		{name: "zero max messages", mutate: func(s *Subscriber) { s.MaxMessages = 0 }, wantErr: "subscriber.max_messages"},
		{name: "max messages above sqs limit", mutate: func(s *Subscriber) { s.MaxMessages = 11 }, wantErr: "subscriber.max_messages"},
		{name: "wait time above sqs limit", mutate: func(s *Subscriber) { s.WaitTimeSeconds = 21 }, wantErr: "subscriber.wait_time_seconds"},
		{name: "negative visibility timeout", mutate: func(s *Subscriber) { s.VisibilityTimeout = -1 }, wantErr: "subscriber.visibility_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Transport:  TransportAWS,
				Store:      Store{Driver: StoreMemory},
				Capture:    Capture{Timeout: time.Second},
				Subscriber: Subscriber{Readers: 1, Workers: 4, MaxMessages: 10, WaitTimeSeconds: 20, VisibilityTimeout: 30},
			}
			tt.mutate(&cfg.Subscriber)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)

			// The in-memory transport does not poll SQS.
			cfg.Transport = TransportMemory
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestConfig_GetDatabaseURL(t *testing.T) {
	cfg := &Config{Database: Database{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "saga", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://u:p@db:5432/saga?sslmode=disable", cfg.GetDatabaseURL())

	cfg.Database.URL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.GetDatabaseURL())
}
