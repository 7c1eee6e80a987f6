// Package config holds the environment-driven configuration for the
// dashboard service.
package config

import (
	"fmt"
	"time"

	"github.com/yogeshdgrg/BR-Dashboard/pkg/config"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/database"
)

// Config is the top-level service configuration, populated from environment
// variables.
type Config struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"br-dashboard"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`

	HTTP     HTTPConfig
	Log      LogConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Tracing  TracingConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	SecureCookies   bool          `env:"HTTP_SECURE_COOKIES" envDefault:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// PostgresConfig holds the database settings.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"POSTGRES_DB" envDefault:"br_dashboard"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
}

// Pool converts the settings into the pool configuration used by pkg/database.
func (c PostgresConfig) Pool() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         c.SSLMode,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}

// RedisConfig holds the product cache settings. Caching is disabled when
// Enabled is false.
type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int           `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Client converts the settings into the client configuration used by
// pkg/database.
func (c RedisConfig) Client() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
	}
}

// KafkaConfig holds the event producer settings. Publishing is disabled when
// Enabled is false.
type KafkaConfig struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
}

// StorageConfig holds the object store settings. When CloudinaryURL is empty
// the service falls back to the in-memory store, which only makes sense for
// local development.
type StorageConfig struct {
	CloudinaryURL string `env:"CLOUDINARY_URL" envDefault:""`
	UploadFolder  string `env:"UPLOAD_FOLDER" envDefault:"br-dashboard"`

	// UploadStrict makes a failed upload abort a whole edit instead of
	// skipping the failed instruction.
	UploadStrict bool `env:"UPLOAD_STRICT" envDefault:"false"`
}

// AuthConfig holds the JWT settings.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
