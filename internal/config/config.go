package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// DevUser is the identity assumed for every request when Tailscale is off.
	DevUser string `yaml:"dev_user"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Stdout     bool   `yaml:"stdout"`
}

type CacheConfig struct {
	PlanCatalogMB  int    `yaml:"plan_catalog_mb"`
	PlanCatalogTTL string `yaml:"plan_catalog_ttl"`
}

// TTL parses PlanCatalogTTL. Only valid after Load.
func (c CacheConfig) TTL() time.Duration {
	d, _ := time.ParseDuration(c.PlanCatalogTTL)
	return d
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FITTRACK_ and underscore-separated paths:
//
//	FITTRACK_SERVER_HOST, FITTRACK_SERVER_PORT, FITTRACK_SERVER_DEV_USER,
//	FITTRACK_DB_HOST, FITTRACK_DB_PORT, FITTRACK_DB_NAME,
//	FITTRACK_DB_USER, FITTRACK_DB_PASSWORD, FITTRACK_DB_SSLMODE,
//	FITTRACK_AUTH_API_KEY,
//	FITTRACK_TAILSCALE_ENABLED, FITTRACK_TAILSCALE_HOSTNAME, FITTRACK_TAILSCALE_STATE_DIR,
//	FITTRACK_LOG_LEVEL, FITTRACK_LOG_FILE, FITTRACK_METRICS_ENABLED
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_SERVER_DEV_USER"); v != "" {
		cfg.Server.DevUser = v
	}
	if v := os.Getenv("FITTRACK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITTRACK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITTRACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITTRACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITTRACK_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITTRACK_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("FITTRACK_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FITTRACK_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("FITTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FITTRACK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("FITTRACK_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.DevUser == "" {
		cfg.Server.DevUser = "local"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "fittrack"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.Stdout = true
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Cache.PlanCatalogMB == 0 {
		cfg.Cache.PlanCatalogMB = 8
	}
	if cfg.Cache.PlanCatalogTTL == "" {
		cfg.Cache.PlanCatalogTTL = "5m"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if d, err := time.ParseDuration(c.Cache.PlanCatalogTTL); err != nil || d <= 0 {
		return fmt.Errorf("cache.plan_catalog_ttl must be a positive duration, got %q", c.Cache.PlanCatalogTTL)
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required when tailscale is enabled")
	}
	return nil
}
