// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DirectoryConfig holds the business-directory provider configuration.
type DirectoryConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxPhotos int           `mapstructure:"max_photos"`
}

// RegistryConfig holds the company-registry provider configuration.
type RegistryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the Redis registry-record cache configuration.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	Database int           `mapstructure:"database"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig holds the optional Postgres job-store configuration.
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Database       string        `mapstructure:"database"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MaxConnections int           `mapstructure:"max_connections"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MigrationsPath string        `mapstructure:"migrations_path"`
}

// KafkaConfig holds the optional validation-event publisher configuration.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// BatchConfig holds batch-processing configuration.
type BatchConfig struct {
	// ItemInterval is the minimum spacing between consecutive items of one
	// batch, enforced to stay under upstream rate limits.
	ItemInterval time.Duration `mapstructure:"item_interval"`
	// MaxItems caps the size of a single submitted batch.
	MaxItems int `mapstructure:"max_items"`
}

// Load reads configuration from defaults and environment variables.
// Environment variables use the MERCHANT_ prefix with underscores, e.g.
// MERCHANT_SERVER_HTTP_PORT.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("directory.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("directory.api_key", "")
	v.SetDefault("directory.timeout", 10*time.Second)
	v.SetDefault("directory.max_photos", 3)

	v.SetDefault("registry.base_url", "https://www.receitaws.com.br/v1/cnpj")
	v.SetDefault("registry.timeout", 10*time.Second)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.database", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "merchant_validation")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "merchants.validated")

	v.SetDefault("batch.item_interval", 100*time.Millisecond)
	v.SetDefault("batch.max_items", 1000)

	v.SetEnvPrefix("MERCHANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &config, config.Validate()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory base URL is required")
	}

	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry base URL is required")
	}

	if c.Batch.ItemInterval < 0 {
		return fmt.Errorf("batch item interval must not be negative")
	}

	if c.Batch.MaxItems <= 0 {
		return fmt.Errorf("batch max items must be positive")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required")
		}
	}

	return nil
}

// DatabaseDSN returns the Postgres connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns the Redis address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Cache.Host, c.Cache.Port)
}
