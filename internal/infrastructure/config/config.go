package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Pancake  PancakeConfig
	Sync     SyncConfig
	Log      LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PancakeConfig holds remote API client settings
type PancakeConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// SyncConfig holds synchronization engine settings
type SyncConfig struct {
	Enabled           bool
	Interval          time.Duration
	MaintenanceEvery  time.Duration
	PagePause         time.Duration
	CategoryPageSize  int
	ProductPageSize   int
	UserPageSize      int
	CustomerPageSize  int
	OrderPageSize     int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PANCAKE_ prefix (e.g., PANCAKE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("PANCAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Pancake: PancakeConfig{
			BaseURL:       v.GetString("pancake.base_url"),
			APIKey:        v.GetString("pancake.api_key"),
			Timeout:       v.GetDuration("pancake.timeout"),
			RetryAttempts: v.GetInt("pancake.retry_attempts"),
			RetryDelay:    v.GetDuration("pancake.retry_delay"),
		},
		Sync: SyncConfig{
			Enabled:          v.GetBool("sync.enabled"),
			Interval:         v.GetDuration("sync.interval"),
			MaintenanceEvery: v.GetDuration("sync.maintenance_every"),
			PagePause:        v.GetDuration("sync.page_pause"),
			CategoryPageSize: v.GetInt("sync.category_page_size"),
			ProductPageSize:  v.GetInt("sync.product_page_size"),
			UserPageSize:     v.GetInt("sync.user_page_size"),
			CustomerPageSize: v.GetInt("sync.customer_page_size"),
			OrderPageSize:    v.GetInt("sync.order_page_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pancake-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pancake_sync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Pancake.BaseURL == "" {
		cfg.Pancake.BaseURL = "https://pos.pages.fm/api/v1"
	}
	if cfg.Pancake.Timeout == 0 {
		cfg.Pancake.Timeout = 30 * time.Second
	}
	if cfg.Pancake.RetryAttempts == 0 {
		cfg.Pancake.RetryAttempts = 3
	}
	if cfg.Pancake.RetryDelay == 0 {
		cfg.Pancake.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 30 * time.Minute
	}
	if cfg.Sync.MaintenanceEvery == 0 {
		cfg.Sync.MaintenanceEvery = time.Hour
	}
	if cfg.Sync.PagePause == 0 {
		cfg.Sync.PagePause = 100 * time.Millisecond
	}
	if cfg.Sync.CategoryPageSize == 0 {
		cfg.Sync.CategoryPageSize = 100
	}
	if cfg.Sync.ProductPageSize == 0 {
		cfg.Sync.ProductPageSize = 30
	}
	if cfg.Sync.UserPageSize == 0 {
		cfg.Sync.UserPageSize = 50
	}
	if cfg.Sync.CustomerPageSize == 0 {
		cfg.Sync.CustomerPageSize = 50
	}
	if cfg.Sync.OrderPageSize == 0 {
		cfg.Sync.OrderPageSize = 100
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Pancake.RetryAttempts < 1 {
		return fmt.Errorf("pancake.retry_attempts must be at least 1")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Pancake.APIKey == "" {
			return fmt.Errorf("pancake.api_key is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
