package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. FOODFLOW_DATABASE_HOST.
const EnvPrefix = "FOODFLOW"

// Config holds all configuration for the front-of-house service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Exchange string `mapstructure:"exchange"`
}

// PricingConfig controls how order totals are computed
type PricingConfig struct {
	SurchargeRate        string `mapstructure:"surcharge_rate"`
	DefaultPaymentMethod string `mapstructure:"default_payment_method"`
}

// ReportingConfig controls the calendar used by the daily sales report
type ReportingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file. Environment variables take
// precedence over the file. A missing file is not an error when the
// environment provides everything.
func Load(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !isConfigNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.exchange", "foodflow_events")

	v.SetDefault("pricing.surcharge_rate", "0")
	v.SetDefault("pricing.default_payment_method", "cash")

	v.SetDefault("reporting.timezone", "UTC")

	v.SetDefault("log.level", "info")
}

// viper reports a missing explicit config file as an fs error rather than
// ConfigFileNotFoundError, so both are accepted here.
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Validate checks the values that the rest of the system relies on
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	rate, err := c.SurchargeRate()
	if err != nil {
		return err
	}
	if rate.IsNegative() {
		return fmt.Errorf("pricing.surcharge_rate must not be negative")
	}

	if strings.TrimSpace(c.Pricing.DefaultPaymentMethod) == "" {
		return fmt.Errorf("pricing.default_payment_method is required")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// SurchargeRate returns the configured surcharge as a fraction (0.15 for 15%)
func (c *Config) SurchargeRate() (decimal.Decimal, error) {
	if c.Pricing.SurchargeRate == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(c.Pricing.SurchargeRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid pricing.surcharge_rate %q: %w", c.Pricing.SurchargeRate, err)
	}
	return rate, nil
}

// Location returns the timezone the daily report uses to bound a calendar date
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reporting.timezone %q: %w", c.Reporting.Timezone, err)
	}
	return loc, nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password),
		Host:   net.JoinHostPort(c.RabbitMQ.Host, strconv.Itoa(c.RabbitMQ.Port)),
		Path:   "/",
	}
	return u.String()
}
