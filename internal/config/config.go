package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/korjavin/foodatease/internal/rating"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPort            = "8080"
	DefaultRateLimitRPS    = 100
	DefaultRateLimitBurst  = 20
	DefaultMaxBatch        = 500
	DefaultShutdownTimeout = 30 * time.Second
)

// Config is the top-level server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Scoring ScoringConfig `yaml:"scoring"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`

	// DataDir is the directory built by the importer. When empty the server
	// runs without product lookup and search.
	DataDir string `yaml:"data_dir"`

	// APIKeys guard the /api routes. No keys means no authentication.
	APIKeys []string `yaml:"api_keys"`

	CORSOrigins []string `yaml:"cors_origins"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig is the per-client-IP token bucket.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ScoringConfig controls the rating engine.
type ScoringConfig struct {
	// Workers bounds the goroutines used for batch scoring; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// MaxBatch is the largest accepted batch request.
	MaxBatch int `yaml:"max_batch"`

	// DailyLimits overrides individual entries of the reference table.
	DailyLimits rating.DailyLimits `yaml:"daily_limits"`
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        DefaultPort,
			CORSOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				RPS:   DefaultRateLimitRPS,
				Burst: DefaultRateLimitBurst,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Scoring: ScoringConfig{
			MaxBatch:    DefaultMaxBatch,
			DailyLimits: rating.DefaultDailyLimits(),
		},
	}
}

// applyEnv overlays environment variables on cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Server.Port = v
	}
	if v, ok := lookup("DATA_DIR"); ok && v != "" {
		cfg.Server.DataDir = v
	}
	if v, ok := lookup("API_KEYS"); ok && v != "" {
		cfg.Server.APIKeys = splitList(v)
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	var err error
	parseFloat := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			f, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				err = fmt.Errorf("%s: %w", key, perr)
				return
			}
			*dst = f
		}
	}
	parseInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%s: %w", key, perr)
				return
			}
			*dst = n
		}
	}
	parseFloat("RATE_LIMIT_RPS", &cfg.Server.RateLimit.RPS)
	parseInt("RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)
	parseInt("SCORE_WORKERS", &cfg.Scoring.Workers)
	parseInt("SCORE_MAX_BATCH", &cfg.Scoring.MaxBatch)
	return err
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if _, err := strconv.ParseUint(cfg.Server.Port, 10, 16); err != nil {
		return fmt.Errorf("server.port %q is not a valid port", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		return fmt.Errorf("server.cors_origins must not be empty")
	}
	if cfg.Server.RateLimit.RPS <= 0 {
		return fmt.Errorf("server.rate_limit.rps must be positive")
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		return fmt.Errorf("server.rate_limit.burst must be positive")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if cfg.Scoring.Workers < 0 {
		return fmt.Errorf("scoring.workers must not be negative")
	}
	if cfg.Scoring.MaxBatch <= 0 {
		return fmt.Errorf("scoring.max_batch must be positive")
	}
	if err := cfg.Scoring.DailyLimits.Validate(); err != nil {
		return fmt.Errorf("scoring.daily_limits: %w", err)
	}
	return nil
}
