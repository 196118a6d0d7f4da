package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Environment: "test",
		LogLevel:    "debug",
		Server:      ServerConfig{Port: 8080, ReadTimeout: "5s", WriteTimeout: "10s", ShutdownTimeout: "5s"},
		Redis:       RedisConfig{TTL: "30m"},
		Data:        DataConfig{Source: SourceFile, Dir: "./data", Timeout: "10s"},
		Model:       ModelConfig{HorizonYears: 12, DefaultMode: "hashrate", DefaultBase: "2", DefaultAsset: "btc"},
		Telemetry:   TelemetryConfig{Exporter: ExporterStdout},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Data.Source)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "kaspa_prices_%s_historical.csv", cfg.Data.PricesHistorical)
	assert.Equal(t, "%s_hashrate_api.csv", cfg.Data.HashrateLive)
	assert.Equal(t, 12, cfg.Model.HorizonYears)
	assert.Equal(t, "hashrate", cfg.Model.DefaultMode)
	assert.Equal(t, "2", cfg.Model.DefaultBase)
	assert.Equal(t, "btc", cfg.Model.DefaultAsset)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "PRODUCTION")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MODEL_HORIZON_YEARS", "20")
	t.Setenv("DATA_SOURCE", "HTTP")
	t.Setenv("DATA_BASE_URL", "https://example.com/data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Model.HorizonYears)
	assert.Equal(t, SourceHTTP, cfg.Data.Source)
	assert.Equal(t, "https://example.com/data", cfg.Data.BaseURL)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("MODEL_DEFAULT_BASE", "7")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "default_base")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown source", func(c *Config) { c.Data.Source = "ftp" }, "unsupported data source"},
		{"file source without dir", func(c *Config) { c.Data.Dir = "" }, "data.dir"},
		{"http source without url", func(c *Config) { c.Data.Source = SourceHTTP }, "data.base_url"},
		{"postgres source without database", func(c *Config) { c.Data.Source = SourcePostgres }, "database.enabled"},
		{"postgres source", func(c *Config) { c.Data.Source = SourcePostgres; c.Database.Enabled = true }, ""},
		{"zero horizon", func(c *Config) { c.Model.HorizonYears = 0 }, "horizon_years"},
		{"negative sma", func(c *Config) { c.Model.SMAPeriod = -1 }, "sma_period"},
		{"bad base", func(c *Config) { c.Model.DefaultBase = "3" }, "default_base"},
		{"bad mode", func(c *Config) { c.Model.DefaultMode = "volume" }, "default_mode"},
		{"missing asset", func(c *Config) { c.Model.DefaultAsset = "" }, "default_asset"},
		{"bad duration", func(c *Config) { c.Redis.TTL = "forever" }, "redis.ttl"},
		{"bad exporter", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "exporter"},
		{"exporter ignored when disabled", func(c *Config) { c.Telemetry.Exporter = "zipkin" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, Duration("5s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("bogus", time.Minute))
	assert.Equal(t, time.Minute, Duration("-1s", time.Minute))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "series", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=series sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db/series"
	assert.Equal(t, "postgres://u:p@db/series", cfg.DSN())
}
