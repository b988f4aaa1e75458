package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/tiling"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Corrections CorrectionsConfig `mapstructure:"corrections"`
	Gazetteer   GazetteerConfig   `mapstructure:"gazetteer"`
	Bodies      []BodyConfig      `mapstructure:"bodies"`
	Datasets    []DatasetConfig   `mapstructure:"datasets"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	InstanceID   string `mapstructure:"instance_id"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Correction store backends.
const (
	BackendMemory   = "memory"
	BackendValkey   = "valkey"
	BackendPostgres = "postgres"
)

type CorrectionsConfig struct {
	Backend string `mapstructure:"backend"`
	// Defaults maps correction keys to records in the stored JSON shape.
	Defaults map[string]any `mapstructure:"defaults"`
	// DefaultsFile is a JSON object of the same shape, merged over Defaults.
	DefaultsFile string `mapstructure:"defaults_file"`
}

// Gazetteer feature sources.
const (
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

type GazetteerConfig struct {
	Source         string  `mapstructure:"source"`
	File           string  `mapstructure:"file"`
	FileConvention string  `mapstructure:"file_convention"`
	Cache          string  `mapstructure:"cache"`
	CacheSize      int64   `mapstructure:"cache_size"`
	SearchCacheTTL int     `mapstructure:"search_cache_ttl"`
	LoadRate       float64 `mapstructure:"load_rate"`
	LoadBurst      int     `mapstructure:"load_burst"`
	LoadTimeout    int     `mapstructure:"load_timeout"`
}

type BodyConfig struct {
	Key                 string  `mapstructure:"key"`
	Name                string  `mapstructure:"name"`
	RadiusKm            float64 `mapstructure:"radius_km"`
	NativeConvention    string  `mapstructure:"native_convention"`
	CentralMeridian     float64 `mapstructure:"central_meridian"`
	PrimeMeridianOffset float64 `mapstructure:"prime_meridian_offset"`
}

type DatasetConfig struct {
	ID               string  `mapstructure:"id"`
	Title            string  `mapstructure:"title"`
	Body             string  `mapstructure:"body"`
	URLTemplate      string  `mapstructure:"tile_url_template"`
	Tiling           string  `mapstructure:"tiling"`
	YAxis            string  `mapstructure:"y_axis"`
	TileSize         int     `mapstructure:"tile_size"`
	MinZoom          int     `mapstructure:"min_zoom"`
	MaxZoom          int     `mapstructure:"max_zoom"`
	Projection       string  `mapstructure:"projection"`
	CompatibilityKey string  `mapstructure:"compatibility_key"`
	Attribution      string  `mapstructure:"attribution"`
	Width            float64 `mapstructure:"width"`
	Height           float64 `mapstructure:"height"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.instance_id", defaultInstanceID(service))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stellar")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "stellarcanvas")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "stellar:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "stellar-gazetteer")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("corrections.backend", BackendValkey)
	v.SetDefault("gazetteer.source", SourcePostgres)
	v.SetDefault("gazetteer.file", "data/features/all_features.json")
	v.SetDefault("gazetteer.file_convention", "east-360")
	v.SetDefault("gazetteer.cache", BackendValkey)
	v.SetDefault("gazetteer.cache_size", 10000)
	v.SetDefault("gazetteer.search_cache_ttl", 300)
	v.SetDefault("gazetteer.load_rate", 2)
	v.SetDefault("gazetteer.load_burst", 4)
	v.SetDefault("gazetteer.load_timeout", 30)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: STELLAR_DATABASE_HOST → database.host
	v.SetEnvPrefix("STELLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultInstanceID(service string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-%s-%d", service, host, os.Getpid())
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.NeedsDatabase() {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.NeedsValkey() && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	switch c.Corrections.Backend {
	case BackendMemory, BackendValkey, BackendPostgres:
	default:
		errs = append(errs, fmt.Sprintf("corrections.backend must be memory, valkey or postgres, got %q", c.Corrections.Backend))
	}
	switch c.Gazetteer.Source {
	case SourcePostgres:
	case SourceFile:
		if c.Gazetteer.File == "" {
			errs = append(errs, "gazetteer.file is required when gazetteer.source is file")
		}
	default:
		errs = append(errs, fmt.Sprintf("gazetteer.source must be postgres or file, got %q", c.Gazetteer.Source))
	}
	if _, err := angle.ParseConvention(c.Gazetteer.FileConvention); err != nil {
		errs = append(errs, "gazetteer.file_convention: "+err.Error())
	}
	switch c.Gazetteer.Cache {
	case BackendMemory, BackendValkey:
	default:
		errs = append(errs, fmt.Sprintf("gazetteer.cache must be memory or valkey, got %q", c.Gazetteer.Cache))
	}
	if c.Gazetteer.LoadRate <= 0 {
		errs = append(errs, "gazetteer.load_rate must be positive")
	}
	if c.Gazetteer.LoadBurst <= 0 {
		errs = append(errs, "gazetteer.load_burst must be positive")
	}

	for i, b := range c.Bodies {
		if _, err := domain.ParseBody(b.Key); err != nil {
			errs = append(errs, fmt.Sprintf("bodies[%d]: %v", i, err))
		}
		if b.RadiusKm <= 0 {
			errs = append(errs, fmt.Sprintf("bodies[%d].radius_km must be positive", i))
		}
		if b.NativeConvention != "" {
			if _, err := angle.ParseConvention(b.NativeConvention); err != nil {
				errs = append(errs, fmt.Sprintf("bodies[%d].native_convention: %v", i, err))
			}
		}
	}
	for i, d := range c.Datasets {
		if d.Tiling != "" {
			if _, err := tiling.ParseScheme(d.Tiling); err != nil {
				errs = append(errs, fmt.Sprintf("datasets[%d].tiling: %v", i, err))
			}
		}
		if _, err := tiling.ParseYAxis(d.YAxis); err != nil {
			errs = append(errs, fmt.Sprintf("datasets[%d].y_axis: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NeedsDatabase reports whether any configured component uses Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.Corrections.Backend == BackendPostgres || c.Gazetteer.Source == SourcePostgres
}

// NeedsValkey reports whether any configured component uses Valkey.
func (c *Config) NeedsValkey() bool {
	return c.Corrections.Backend == BackendValkey || c.Gazetteer.Cache == BackendValkey
}

