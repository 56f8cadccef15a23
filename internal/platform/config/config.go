package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the number manager service and CLI.
// Static per-organization data lives in a separate registry file
// (RegistryPath); this struct only carries process-level settings.
type Config struct {
	ServerPort int    `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Path to the static organization registry (YAML).
	RegistryPath string `mapstructure:"REGISTRY_PATH"`

	// Admin login for the API surface. The password is stored as a bcrypt
	// hash, never in the clear.
	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	JWTAccessSecret      string `mapstructure:"JWT_ACCESS_SECRET"`
	JWTAccessExpiryHours int    `mapstructure:"JWT_ACCESS_EXPIRY_HOURS"`

	ProviderTimeoutSeconds int `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`
	DefaultPageSize        int `mapstructure:"DEFAULT_PAGE_SIZE"`
}

// ProviderTimeout returns the HTTP timeout for remote provider calls.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

// LoadDotEnv loads a .env file if present. Credential variables like
// IDFC_TOKEN are typically supplied this way during development.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

// Load reads config.defaults.yaml (if present) merged with NUMDESK_-prefixed
// environment variables, e.g. NUMDESK_LOG_LEVEL, NUMDESK_SERVER_PORT.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("NUMDESK")

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REGISTRY_PATH", "configs/organizations.yaml")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("JWT_ACCESS_SECRET", "access-secret-must-be-overridden-in-prod")
	v.SetDefault("JWT_ACCESS_EXPIRY_HOURS", 8)
	v.SetDefault("PROVIDER_TIMEOUT_SECONDS", 30)
	v.SetDefault("DEFAULT_PAGE_SIZE", 50)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base configuration file not found for %s; using defaults and environment variables.", serviceName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
