package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Data        DataConfig      `mapstructure:"data"`
	Model       ModelConfig     `mapstructure:"model"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ReadTimeout     string   `mapstructure:"read_timeout"`
	WriteTimeout    string   `mapstructure:"write_timeout"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// DatabaseURL overrides the individual connection fields when set.
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

// DataConfig locates the CSV series. The *_template fields take the asset symbol.
type DataConfig struct {
	Source             string `mapstructure:"source"`
	Dir                string `mapstructure:"dir"`
	BaseURL            string `mapstructure:"base_url"`
	Timeout            string `mapstructure:"timeout"`
	PricesHistorical   string `mapstructure:"prices_historical_template"`
	PricesLive         string `mapstructure:"prices_live_template"`
	HashrateHistorical string `mapstructure:"hashrate_historical_template"`
	HashrateLive       string `mapstructure:"hashrate_live_template"`
}

type ModelConfig struct {
	HorizonYears int    `mapstructure:"horizon_years"`
	DefaultMode  string `mapstructure:"default_mode"`
	DefaultBase  string `mapstructure:"default_base"`
	DefaultAsset string `mapstructure:"default_asset"`
	// SMAPeriod adds a moving-average overlay of the observed series; 0 disables it.
	SMAPeriod int `mapstructure:"sma_period"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// Load reads config.yaml (./configs or .), a .env file when present, and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Data.Source = strings.ToLower(config.Data.Source)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile:
		if c.Data.Dir == "" {
			return errors.New("data.dir is required for the file source")
		}
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return errors.New("data.base_url is required for the http source")
		}
	case SourcePostgres:
		if !c.Database.Enabled {
			return errors.New("data.source postgres requires database.enabled")
		}
	default:
		return fmt.Errorf("unsupported data source %q", c.Data.Source)
	}

	if c.Model.HorizonYears <= 0 {
		return fmt.Errorf("model.horizon_years must be positive, got %d", c.Model.HorizonYears)
	}
	if c.Model.SMAPeriod < 0 {
		return fmt.Errorf("model.sma_period must not be negative, got %d", c.Model.SMAPeriod)
	}
	if _, err := logscale.Parse(c.Model.DefaultBase); err != nil {
		return fmt.Errorf("invalid model.default_base: %w", err)
	}
	if _, err := models.ParseMode(c.Model.DefaultMode); err != nil {
		return fmt.Errorf("invalid model.default_mode: %w", err)
	}
	if c.Model.DefaultAsset == "" {
		return errors.New("model.default_asset is required")
	}

	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"data.timeout":            c.Data.Timeout,
		"redis.ttl":               c.Redis.TTL,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", key, err)
		}
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterStdout, ExporterOTLP:
		default:
			return fmt.Errorf("unsupported telemetry exporter %q", c.Telemetry.Exporter)
		}
	}
	return nil
}

// Duration parses a validated duration string, falling back when it is empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "powerlaw")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_conns", 10)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1h")

	// Data
	v.SetDefault("data.source", SourceFile)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.base_url", "")
	v.SetDefault("data.timeout", "15s")
	v.SetDefault("data.prices_historical_template", "kaspa_prices_%s_historical.csv")
	v.SetDefault("data.prices_live_template", "kaspa_prices_%s_api.csv")
	v.SetDefault("data.hashrate_historical_template", "%s_hashrate_historical.csv")
	v.SetDefault("data.hashrate_live_template", "%s_hashrate_api.csv")

	// Model
	v.SetDefault("model.horizon_years", 12)
	v.SetDefault("model.default_mode", string(models.ModeHashrate))
	v.SetDefault("model.default_base", "2")
	v.SetDefault("model.default_asset", "btc")
	v.SetDefault("model.sma_period", 0)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", ExporterStdout)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "powerlaw-overtake")
	v.SetDefault("telemetry.service_version", "dev")
}
