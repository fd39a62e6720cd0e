package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/units"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MigrationsPath string `yaml:"migrations_path"`
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

// LoggingConfig selects the slog handler. File enables a rotating log file
// next to stdout; sizes are in megabytes.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// EngineConfig holds calculation defaults.
type EngineConfig struct {
	DefaultUnit      units.Unit        `yaml:"default_unit"`
	BarbellKg        float64           `yaml:"barbell_kg"`
	HeavyThresholdKg float64           `yaml:"heavy_threshold_kg"`
	ReadinessWeights readiness.Weights `yaml:"readiness_weights"`
	// ImportBodyweightKg resolves "+x" bodyweight rows of imported CSVs.
	ImportBodyweightKg float64 `yaml:"import_bodyweight_kg"`
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

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{MigrationsPath: "migrations"},
		Tailscale: TailscaleConfig{Hostname: "liftcalc"},
		Logging:   LoggingConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28},
		Engine: EngineConfig{
			DefaultUnit:      units.Kilograms,
			BarbellKg:        20,
			HeavyThresholdKg: 100,
			ReadinessWeights: readiness.DefaultWeights,
		},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTCALC_ and underscore-separated paths:
//
//	LIFTCALC_SERVER_HOST, LIFTCALC_SERVER_PORT,
//	LIFTCALC_DB_HOST, LIFTCALC_DB_PORT, LIFTCALC_DB_NAME,
//	LIFTCALC_DB_USER, LIFTCALC_DB_PASSWORD, LIFTCALC_DB_SSLMODE,
//	LIFTCALC_AUTH_API_KEY, LIFTCALC_TAILSCALE_ENABLED,
//	LIFTCALC_LOG_LEVEL, LIFTCALC_LOG_FILE, LIFTCALC_DEFAULT_UNIT
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTCALC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTCALC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTCALC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTCALC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTCALC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTCALC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTCALC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTCALC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIFTCALC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIFTCALC_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("LIFTCALC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LIFTCALC_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("LIFTCALC_DEFAULT_UNIT"); v != "" {
		u, err := units.ParseUnit(v)
		if err != nil {
			u = units.Unit(v) // rejected by validate
		}
		cfg.Engine.DefaultUnit = u
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
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
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return c.Engine.validate()
}

func (l LoggingConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", l.Level)
}

func (e EngineConfig) validate() error {
	if err := e.DefaultUnit.Validate(); err != nil {
		return fmt.Errorf("engine.default_unit: %w", err)
	}
	if e.BarbellKg <= 0 {
		return fmt.Errorf("engine.barbell_kg must be > 0")
	}
	if e.HeavyThresholdKg <= 0 {
		return fmt.Errorf("engine.heavy_threshold_kg must be > 0")
	}
	if e.ImportBodyweightKg < 0 {
		return fmt.Errorf("engine.import_bodyweight_kg must be >= 0")
	}
	if err := e.ReadinessWeights.Validate(); err != nil {
		return fmt.Errorf("engine.readiness_weights: %w", err)
	}
	return nil
}
