package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "STOCKROOM"
	defaultHTTPAddress      = "127.0.0.1:8080"
	defaultDatabasePath     = "stockroom.db"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultSessionTTL       = 480
	defaultWriteLevel       = 1
	defaultAdminLevel       = 1
	defaultPresenceInterval = 1
)

// AppConfig captures runtime configuration for the stockroom hosts.
type AppConfig struct {
	HTTPAddress      string
	DatabasePath     string
	LogLevel         string
	LogFormat        string
	SigningSecret    string
	SessionTTL       time.Duration
	WriteLevel       int
	AdminLevel       int
	PresenceInterval time.Duration
	AllowedOrigins   []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", []string{})
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("auth.session_ttl_minutes", defaultSessionTTL)
	configViper.SetDefault("auth.write_level", defaultWriteLevel)
	configViper.SetDefault("auth.admin_level", defaultAdminLevel)
	configViper.SetDefault("presence.interval_seconds", defaultPresenceInterval)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		LogFormat:        strings.ToLower(strings.TrimSpace(configViper.GetString("log.format"))),
		SigningSecret:    configViper.GetString("auth.signing_secret"),
		SessionTTL:       time.Duration(configViper.GetInt("auth.session_ttl_minutes")) * time.Minute,
		WriteLevel:       configViper.GetInt("auth.write_level"),
		AdminLevel:       configViper.GetInt("auth.admin_level"),
		PresenceInterval: time.Duration(configViper.GetInt("presence.interval_seconds")) * time.Second,
		AllowedOrigins:   configViper.GetStringSlice("http.allowed_origins"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.LogFormat)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl_minutes must be positive")
	}
	if c.WriteLevel < 1 || c.AdminLevel < 1 {
		return fmt.Errorf("auth.write_level and auth.admin_level must be at least 1")
	}
	if c.PresenceInterval <= 0 {
		return fmt.Errorf("presence.interval_seconds must be positive")
	}
	return nil
}
