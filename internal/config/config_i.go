package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ilog "spacewars/internal/log"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr           string            `yaml:"http_addr" env:"HTTP_ADDR"`
	LogLevel           string            `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat          string            `yaml:"log_format" env:"LOG_FORMAT"`
	LogColors          map[string]string `yaml:"log_colors" env:"LOG_COLORS" envSeparator:"," envKeyValSeparator:":"`
	DBDriver           string            `yaml:"database_driver" env:"DATABASE_DRIVER"`
	DBURL              string            `yaml:"database_url" env:"DATABASE_URL"`
	JWTSecret          string            `yaml:"jwt_secret" env:"JWT_SECRET"`
	AdminPlayerIDs     []int64           `yaml:"admin_player_ids" env:"ADMIN_PLAYER_IDS" envSeparator:","`
	RateLimitPerSecond float64           `yaml:"rate_limit_per_second" env:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int               `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	Combat             Combat            `yaml:"combat" envPrefix:"COMBAT_"`
}

// Combat holds the tuning knobs of the combat engine.
type Combat struct {
	DamageVariance float64       `yaml:"damage_variance" env:"DAMAGE_VARIANCE"`
	MaxRounds      int           `yaml:"max_rounds" env:"MAX_ROUNDS"`
	ChallengeTTL   time.Duration `yaml:"challenge_ttl" env:"CHALLENGE_TTL"`
	MinimumCredits int64         `yaml:"minimum_credits" env:"MINIMUM_CREDITS"`
}

// Defaults returns the values used for any field the file leaves empty.
func Defaults() Config {
	return Config{
		HTTPAddr:           ":8080",
		LogLevel:           ilog.LevelInfo,
		LogFormat:          ilog.FormatConsole,
		DBDriver:           DriverPostgres,
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
		Combat: Combat{
			DamageVariance: 0.20,
			MaxRounds:      100,
			ChallengeTTL:   5 * time.Minute,
			MinimumCredits: 5000,
		},
	}
}

func Load() (Config, error) {
	logger := ilog.Component("config")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		logger.Infof("CONFIG_PATH is set, loading: %s", p)
		return LoadFromFile(p)
	}
	path := resolveDefaultConfigPath()
	logger.Infof("using resolved config path: %s", path)
	return LoadFromFile(path)
}

func LoadFromFile(path string) (Config, error) {
	logger := ilog.Component("config")
	logger.Infof("reading config file: %s", path)
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("read failed: %v", err)
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return parse(b, path)
}

func parse(b []byte, path string) (Config, error) {
	logger := ilog.Component("config")
	cfg := Defaults()
	logger.Infof("parsing yaml")
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		logger.Errorf("yaml parse failed: %v", err)
		return Config{}, fmt.Errorf("failed to parse yaml %s: %w", path, err)
	}

	logger.Infof("applying SPACEWARS_* environment overrides")
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SPACEWARS_"}); err != nil {
		logger.Errorf("env parse failed: %v", err)
		return Config{}, fmt.Errorf("failed to parse env overrides: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	logger.Infof("validating fields")
	if err := cfg.Validate(); err != nil {
		logger.Errorf("validation failed: %v", err)
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger.Infof("config loaded successfully (http_addr=%s driver=%s)", cfg.HTTPAddr, cfg.DBDriver)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DBURL == "" {
			return errors.New("database_url is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database_driver %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.Combat.DamageVariance < 0 || c.Combat.DamageVariance >= 1 {
		return errors.New("combat.damage_variance must be in [0, 1)")
	}
	if c.Combat.MaxRounds <= 0 {
		return errors.New("combat.max_rounds must be positive")
	}
	if c.Combat.ChallengeTTL <= 0 {
		return errors.New("combat.challenge_ttl must be positive")
	}
	if c.Combat.MinimumCredits <= 0 {
		return errors.New("combat.minimum_credits must be positive")
	}
	return nil
}

func resolveDefaultConfigPath() string {
	logger := ilog.Component("config")
	candidates := []string{
		"config/config.yml",
		"../config/config.yml",
		"../../config/config.yml",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			logger.Infof("found config candidate: %s", p)
			return p
		}
	}
	// fallback for better error display in LoadFromFile
	logger.Warnf("no candidate found, fallback path: %s", candidates[0])
	return filepath.Clean(candidates[0])
}
