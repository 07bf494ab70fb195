package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const envPrefix = "SUBSCRIBE"

const (
	BackendLocal = "local"
	BackendLago  = "lago"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Environment   string
	HTTPAddr      string
	LogLevel      string
	SnowflakeNode int64

	// Backend selects where plans are read and subscriptions upserted.
	Backend string

	Database  DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Lago      LagoConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CatalogConfig struct {
	PageLimit int
	CacheTTL  time.Duration
}

// TelemetryConfig enables OTLP trace export when OTLPEndpoint is set.
type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
}

type LagoConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Module supplies an already loaded Config to the graph.
func Module(cfg Config) fx.Option {
	return fx.Module("config", fx.Supply(cfg))
}

// Load reads .env (if present), an optional config file and SUBSCRIBE_*
// environment variables, in increasing order of precedence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Environment:   v.GetString("environment"),
		HTTPAddr:      v.GetString("http_addr"),
		LogLevel:      v.GetString("log_level"),
		SnowflakeNode: v.GetInt64("snowflake_node"),
		Backend:       strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			DSN:    v.GetString("database.dsn"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Catalog: CatalogConfig{
			PageLimit: v.GetInt("catalog.page_limit"),
			CacheTTL:  v.GetDuration("catalog.cache_ttl"),
		},
		Lago: LagoConfig{
			BaseURL: strings.TrimRight(v.GetString("lago.base_url"), "/"),
			APIKey:  v.GetString("lago.api_key"),
			Timeout: v.GetDuration("lago.timeout"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("telemetry.service_name"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			Insecure:     v.GetBool("telemetry.insecure"),
			SampleRatio:  v.GetFloat64("telemetry.sample_ratio"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("snowflake_node", 1)
	v.SetDefault("backend", BackendLocal)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:subscribe.db?cache=shared")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("catalog.page_limit", 100)
	v.SetDefault("catalog.cache_ttl", 5*time.Minute)
	v.SetDefault("lago.base_url", "")
	v.SetDefault("lago.api_key", "")
	v.SetDefault("lago.timeout", 10*time.Second)
	v.SetDefault("telemetry.service_name", "subscribe")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendLago:
		if c.Lago.BaseURL == "" {
			return errors.New("lago.base_url is required for the lago backend")
		}
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Catalog.PageLimit <= 0 {
		return errors.New("catalog.page_limit must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be between 0 and 1")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
