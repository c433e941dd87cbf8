package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shelfapp "github.com/dmehra2102/Kitchen-Unit/internal/shelf/application"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kitchen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KAFKA_ADDR", "PG_URL", "REDIS_ADDR", "HTTP_ADDR", "GRPC_ADDR", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults changed by Load (-want +got):\n%s", diff)
	}
	assert.Equal(t, shelfapp.Capacities{Hot: 10, Cold: 10, Frozen: 10, Overflow: 15}, cfg.Shelves.Capacities())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
shelves:
  hot: 1
  cold: 2
  frozen: 3
  overflow: 4
courier:
  min_arrival_seconds: 0
  max_arrival_seconds: 1
ingestion:
  source: kafka
  topic: orders
  idle_timeout: 3s
  rate_per_second: 5
events:
  sinks: [log, kafka]
`)
	t.Setenv("KITCHEN_HOT_CAPACITY", "7")
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092")
	t.Setenv("HTTP_ADDR", ":18080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Shelves{Hot: 7, Cold: 2, Frozen: 3, Overflow: 4}, cfg.Shelves)
	assert.Equal(t, 0, cfg.Courier.Range().Min)
	assert.Equal(t, SourceKafka, cfg.Ingestion.Source)
	assert.Equal(t, 3*time.Second, cfg.Ingestion.IdleTimeout)
	assert.Equal(t, 5.0, cfg.Ingestion.RatePerSecond)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":18080", cfg.HTTPAddr)
	assert.True(t, cfg.HasSink(SinkKafka))
	assert.False(t, cfg.HasSink(SinkOutbox))
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("KITCHEN_COLD_CAPACITY", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "KITCHEN_COLD_CAPACITY")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"zero capacity":    {func(c *Config) { c.Shelves.Overflow = 0 }, "shelves.overflow"},
		"inverted courier": {func(c *Config) { c.Courier.MinArrivalSeconds = 9 }, "courier"},
		"zero rate":        {func(c *Config) { c.Ingestion.RatePerSecond = 0 }, "rate_per_second"},
		"unknown source":   {func(c *Config) { c.Ingestion.Source = "ftp" }, "unknown ingestion.source"},
		"no orders file":   {func(c *Config) { c.Ingestion.OrdersFile = "" }, "orders_file"},
		"unknown sink":     {func(c *Config) { c.Events.Sinks = []string{"pigeon"} }, "unknown events sink"},
		"outbox without pg": {func(c *Config) {
			c.Events.Sinks = []string{SinkOutbox}
			c.Postgres.URL = ""
		}, "postgres.url"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
	assert.NoError(t, Default().Validate())
}
