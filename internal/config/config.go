// Package config loads the bizadmin configuration file and applies
// defaults and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"

	"github.com/eci4ever/bizadmin/pkg/logger"
)

// InsecureSecret is used when no secret is configured. Startup refuses it
// in prod.
const InsecureSecret = "your-secret-key-change-in-production"

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Environment variables that override the file.
const (
	SecretEnv   = "BETTER_AUTH_SECRET"
	PortEnv     = "BIZADMIN_PORT"
	LogLevelEnv = "BIZADMIN_LOG_LEVEL"
	RunEnv      = "BIZADMIN_ENV"
)

type Config struct {
	General  GeneralConfig  `yaml:"General"`
	Http     HttpConfig     `yaml:"Http"`
	Database DatabaseConfig `yaml:"Database"`
	Auth     AuthConfig     `yaml:"Auth"`
	Cleanup  CleanupConfig  `yaml:"Cleanup"`
}

type GeneralConfig struct {
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	// LogFile, when set, receives a copy of the log rotated by size.
	LogFile       string `yaml:"logFile"`
	LogMaxSizeMB  int    `yaml:"logMaxSizeMB"`
	LogMaxBackups int    `yaml:"logMaxBackups"`
	LogMaxAgeDays int    `yaml:"logMaxAgeDays"`
}

type HttpConfig struct {
	Port           string        `yaml:"port"`
	Https          bool          `yaml:"https"`
	BaseURL        string        `yaml:"baseURL"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	BodyLimit      string        `yaml:"bodyLimit"`
	TrustedProxies []string      `yaml:"trustedProxies"`
	MetricsAllow   []string      `yaml:"metricsAllow"`
}

// DatabaseConfig names the database binding. The environment variable
// named after the upper-cased binding overrides Path.
type DatabaseConfig struct {
	Binding string `yaml:"binding"`
	Path    string `yaml:"path"`
}

type AuthConfig struct {
	Secret            string          `yaml:"secret"`
	SessionTTL        time.Duration   `yaml:"sessionTTL"`
	LegacyUsersPublic *bool           `yaml:"legacyUsersPublic"`
	RateLimit         RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	Backend     string  `yaml:"backend"`
	Dir         string  `yaml:"dir"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
	SignInRPS   float64 `yaml:"signInRPS"`
	SignInBurst int     `yaml:"signInBurst"`
}

type CleanupConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default values
var (
	defaultEnv          = EnvDev
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultLogMaxSize   = 50
	defaultLogBackups   = 5
	defaultLogMaxAge    = 28
	defaultPort         = "8787"
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultBodyLimit    = "1M"
	defaultBinding      = "d1_vite_react"
	defaultDBPath       = "./data/bizadmin.db"
	defaultSessionTTL   = 7 * 24 * time.Hour
	defaultRLBackend    = "memory"
	defaultRLDir        = "./data/ratelimit"
	defaultRPS          = 10.0
	defaultBurst        = 30
	defaultSignInRPS    = 0.3
	defaultSignInBurst  = 3
	defaultSchedule     = "@every 1h"
)

// Load reads path, applies defaults and environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("Config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(SecretEnv); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv(PortEnv); v != "" {
		cfg.Http.Port = v
	}
	if v := os.Getenv(LogLevelEnv); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv(RunEnv); v != "" {
		cfg.General.Env = v
	}
	binding := cfg.Database.Binding
	if binding == "" {
		binding = defaultBinding
	}
	if v := os.Getenv(strings.ToUpper(binding)); v != "" {
		cfg.Database.Path = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.General.Env == "" {
		cfg.General.Env = defaultEnv
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = defaultLogLevel
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = defaultLogFormat
	}
	if cfg.General.LogMaxSizeMB == 0 {
		cfg.General.LogMaxSizeMB = defaultLogMaxSize
	}
	if cfg.General.LogMaxBackups == 0 {
		cfg.General.LogMaxBackups = defaultLogBackups
	}
	if cfg.General.LogMaxAgeDays == 0 {
		cfg.General.LogMaxAgeDays = defaultLogMaxAge
	}
	if cfg.Http.Port == "" {
		cfg.Http.Port = defaultPort
	}
	if cfg.Http.BaseURL == "" {
		scheme := "http"
		if cfg.Http.Https {
			scheme = "https"
		}
		cfg.Http.BaseURL = scheme + "://localhost:" + cfg.Http.Port
		logger.Debug("Applied default value for Http.BaseURL", "value", cfg.Http.BaseURL)
	}
	if cfg.Http.ReadTimeout == 0 {
		cfg.Http.ReadTimeout = defaultReadTimeout
	}
	if cfg.Http.WriteTimeout == 0 {
		cfg.Http.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Http.BodyLimit == "" {
		cfg.Http.BodyLimit = defaultBodyLimit
	}
	if cfg.Database.Binding == "" {
		cfg.Database.Binding = defaultBinding
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDBPath
		logger.Debug("Applied default value for Database.Path", "value", defaultDBPath)
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = defaultSessionTTL
	}
	if cfg.Auth.LegacyUsersPublic == nil {
		public := true
		cfg.Auth.LegacyUsersPublic = &public
	}
	rl := &cfg.Auth.RateLimit
	if rl.Backend == "" {
		rl.Backend = defaultRLBackend
	}
	if rl.Dir == "" {
		rl.Dir = defaultRLDir
	}
	if rl.RPS == 0 {
		rl.RPS = defaultRPS
	}
	if rl.Burst == 0 {
		rl.Burst = defaultBurst
	}
	if rl.SignInRPS == 0 {
		rl.SignInRPS = defaultSignInRPS
	}
	if rl.SignInBurst == 0 {
		rl.SignInBurst = defaultSignInBurst
	}
	if cfg.Cleanup.Schedule == "" {
		cfg.Cleanup.Schedule = defaultSchedule
	}
}

// Validate checks the loaded values. A missing secret falls back to
// InsecureSecret outside prod.
func (c *Config) Validate() error {
	switch c.General.Env {
	case EnvDev, EnvProd:
	default:
		return fmt.Errorf("General.env must be %q or %q, got %q", EnvDev, EnvProd, c.General.Env)
	}

	port, err := strconv.Atoi(c.Http.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("Http.port must be a number between 1 and 65535, got %q", c.Http.Port)
	}

	if c.Auth.Secret == "" || c.Auth.Secret == InsecureSecret {
		if c.IsProd() {
			return fmt.Errorf("%s must be set in prod", SecretEnv)
		}
		c.Auth.Secret = InsecureSecret
		logger.Warn("No auth secret configured, using the insecure placeholder", "env", SecretEnv)
	}

	if c.Auth.RateLimit.RPS < 0 || c.Auth.RateLimit.SignInRPS < 0 {
		return fmt.Errorf("Auth.rateLimit rates must not be negative")
	}
	switch c.Auth.RateLimit.Backend {
	case "memory", "starskey":
	default:
		return fmt.Errorf("Auth.rateLimit.backend must be memory or starskey, got %q", c.Auth.RateLimit.Backend)
	}
	return nil
}

// IsProd reports whether the prod environment is configured.
func (c *Config) IsProd() bool {
	return c.General.Env == EnvProd
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Http.Port
}

// LegacyUsersPublic reports whether /api/users is served without a session.
func (c *Config) LegacyUsersPublic() bool {
	return c.Auth.LegacyUsersPublic == nil || *c.Auth.LegacyUsersPublic
}
