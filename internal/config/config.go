// Package config loads service configuration from an optional stockroom.yaml
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the server and CLI.
type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	AppPort  string `mapstructure:"APP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	DBConnLifetime  time.Duration `mapstructure:"DB_CONN_LIFETIME"`
	StatementTimout time.Duration `mapstructure:"DB_STATEMENT_TIMEOUT"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTIssuer      string        `mapstructure:"JWT_ISSUER"`
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`

	LoginMaxAttempts  int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginLockDuration time.Duration `mapstructure:"LOGIN_LOCK_DURATION"`

	// AdminPassword seeds the first admin account when the user table is empty.
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	SettingsQuotaBytes int64         `mapstructure:"SETTINGS_QUOTA_BYTES"`
	SettingsListen     bool          `mapstructure:"SETTINGS_LISTEN"`
	DraftTTL           time.Duration `mapstructure:"DRAFT_TTL"`
	DefaultLocale      string        `mapstructure:"DEFAULT_LOCALE"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	MaxUploadBytes     int64         `mapstructure:"MAX_UPLOAD_BYTES"`
}

const defaultJWTSecret = "change-me-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_CONN_LIFETIME", time.Hour)
	v.SetDefault("DB_STATEMENT_TIMEOUT", 30*time.Second)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "stockroom")
	v.SetDefault("ACCESS_TOKEN_TTL", 12*time.Hour)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCK_DURATION", 15*time.Minute)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SETTINGS_QUOTA_BYTES", int64(5<<20))
	v.SetDefault("SETTINGS_LISTEN", true)
	v.SetDefault("DRAFT_TTL", 2*time.Hour)
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("MAX_UPLOAD_BYTES", int64(20<<20))
}

// Load reads configuration. configFile may be empty, in which case
// ./stockroom.yaml is used when present. Environment variables always win.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("stockroom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only affects Get; Unmarshal needs every key bound explicitly.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Location resolves the configured report timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks settings required to start the server.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if !c.IsDevelopment() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed outside development")
	}
	if c.SettingsQuotaBytes <= 0 {
		return errors.New("SETTINGS_QUOTA_BYTES must be positive")
	}
	return nil
}
