package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"siikhub-waitlist-go/internal/models"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Waitlist  WaitlistConfig  `mapstructure:"waitlist"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// WaitlistConfig holds signup behaviour settings
type WaitlistConfig struct {
	DefaultSource string `mapstructure:"default_source"`
	MaxUserAgent  int    `mapstructure:"max_user_agent"`
	SignupRetries int    `mapstructure:"signup_retries"`
}

// SchedulerConfig holds the position audit schedule
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	v.AutomaticEnv()
	bindEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"https://siikhub.com",
		"https://*.siikhub.com",
	})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "./waitlist.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)

	v.SetDefault("waitlist.default_source", models.SourceWebsite)
	v.SetDefault("waitlist.max_user_agent", 500)
	v.SetDefault("waitlist.signup_retries", 3)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval_minutes", 15)

	v.SetDefault("log.level", "info")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")

	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Waitlist
	v.BindEnv("waitlist.default_source", "WAITLIST_DEFAULT_SOURCE")
	v.BindEnv("waitlist.max_user_agent", "WAITLIST_MAX_USER_AGENT")
	v.BindEnv("waitlist.signup_retries", "WAITLIST_SIGNUP_RETRIES")

	// Scheduler
	v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	v.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")

	v.BindEnv("log.level", "LOG_LEVEL")
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required for mysql")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if !models.IsAllowedSource(c.Waitlist.DefaultSource) {
		return fmt.Errorf("default source %q must be one of: %s",
			c.Waitlist.DefaultSource, strings.Join(models.AllowedSources, ", "))
	}

	if c.Waitlist.SignupRetries <= 0 {
		return fmt.Errorf("signup retries must be greater than 0")
	}

	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
