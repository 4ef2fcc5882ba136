package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

type DeploymentMode string

const (
	ModeLocal DeploymentMode = "local"
	ModeProd  DeploymentMode = "prod"
)

// Configuration is the full application configuration, loaded from yaml files
// and TOWERBILL_* environment variables.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Billing    BillingConfig    `mapstructure:"billing"`
}

type DeploymentConfig struct {
	Mode DeploymentMode `mapstructure:"mode" default:"local"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" default:":8080"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user" default:"towerbill"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" default:"towerbill"`
	SSLMode  string `mapstructure:"sslmode" default:"disable"`
}

type LoggingConfig struct {
	Level LogLevel `mapstructure:"level" default:"info"`
}

// BillingConfig holds the billing engine knobs.
type BillingConfig struct {
	// OverdueAfterDays is how many days after period end a pending invoice
	// becomes eligible for the overdue sweep.
	OverdueAfterDays int `mapstructure:"overdue_after_days" default:"15"`
	// GenerationLockTimeout bounds the wait on a held generation lock.
	// Zero means fail-fast.
	GenerationLockTimeout time.Duration `mapstructure:"generation_lock_timeout" default:"0s"`
	// DefaultReadingWindowStart/End seed the reading window for buildings
	// created without explicit bounds.
	DefaultReadingWindowStart int `mapstructure:"default_reading_window_start" default:"1"`
	DefaultReadingWindowEnd   int `mapstructure:"default_reading_window_end" default:"5"`
	// CatalogCacheTTL bounds staleness of the active-tariff snapshot cache.
	CatalogCacheTTL time.Duration `mapstructure:"catalog_cache_ttl" default:"1m"`
}

// NewConfig loads configuration from config files and the environment.
func NewConfig() (*Configuration, error) {
	// Load .env if present; env vars still win over file values.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("towerbill")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrInternal)
		}
	}

	cfg := GetDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrInternal)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "towerbill")
	v.SetDefault("postgres.dbname", "towerbill")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("logging.level", string(LogLevelInfo))
	v.SetDefault("billing.overdue_after_days", 15)
	v.SetDefault("billing.generation_lock_timeout", "0s")
	v.SetDefault("billing.default_reading_window_start", 1)
	v.SetDefault("billing.default_reading_window_end", 5)
	v.SetDefault("billing.catalog_cache_ttl", "1m")
}

// GetDefaultConfig returns a configuration with sane local defaults. Used by
// the global logger before full config load and by tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "towerbill",
			DBName:  "towerbill",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{Level: LogLevelInfo},
		Billing: BillingConfig{
			OverdueAfterDays:          15,
			GenerationLockTimeout:     0,
			DefaultReadingWindowStart: 1,
			DefaultReadingWindowEnd:   5,
			CatalogCacheTTL:           time.Minute,
		},
	}
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Configuration) Validate() error {
	if c.Billing.OverdueAfterDays < 0 {
		return ierr.NewError("overdue_after_days must not be negative").
			WithHint("Set billing.overdue_after_days to zero or a positive number of days").
			Mark(ierr.ErrValidation)
	}
	if c.Billing.DefaultReadingWindowStart < 1 || c.Billing.DefaultReadingWindowEnd > 31 ||
		c.Billing.DefaultReadingWindowStart > c.Billing.DefaultReadingWindowEnd {
		return ierr.NewError("invalid default reading window").
			WithHint("Reading window bounds must satisfy 1 <= start <= end <= 31").
			WithReportableDetails(map[string]interface{}{
				"start": c.Billing.DefaultReadingWindowStart,
				"end":   c.Billing.DefaultReadingWindowEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DSN returns the postgres connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
