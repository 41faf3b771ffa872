package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from a JSON file and then overridden by LAZYPLAN_*
// environment variables.
type Config struct {
	DBPath     string `json:"db_path" env:"LAZYPLAN_DB_PATH"`
	WebEnabled bool   `json:"web_enabled" env:"LAZYPLAN_WEB"`
	WebPort    int    `json:"web_port" env:"LAZYPLAN_WEB_PORT"`

	RedisAddr       string `json:"redis_addr,omitempty" env:"LAZYPLAN_REDIS_ADDR"`
	RedisPassword   string `json:"-" env:"LAZYPLAN_REDIS_PASSWORD"`
	RedisDB         int    `json:"redis_db,omitempty" env:"LAZYPLAN_REDIS_DB"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" env:"LAZYPLAN_CACHE_TTL"`

	ParseDelayMS       int      `json:"parse_delay_ms" env:"LAZYPLAN_PARSE_DELAY_MS"`
	RateLimitPerSecond float64  `json:"rate_limit_per_second" env:"LAZYPLAN_RATE_PER_SECOND"`
	RateLimitBurst     int      `json:"rate_limit_burst" env:"LAZYPLAN_RATE_BURST"`
	Timezone           string   `json:"timezone,omitempty" env:"LAZYPLAN_TZ"`
	CORSOrigins        []string `json:"cors_origins" env:"LAZYPLAN_CORS_ORIGINS" env-separator:","`
}

func Default() Config {
	return Config{
		WebPort:            8080,
		CacheTTLSeconds:    60,
		ParseDelayMS:       300,
		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
		CORSOrigins:        []string{"*"},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazyplan", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load starts from Default, layers the file at path when it exists, then
// the environment.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ApplyEnv(cfg)
}

// LoadFile reads only the file layer over Default. It is what Save should
// be given, so environment overrides and secrets never reach the disk.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv layers LAZYPLAN_* variables over cfg and validates the result.
func ApplyEnv(cfg Config) (Config, error) {
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port %d out of range", c.WebPort)
	}
	if c.RateLimitBurst < 0 || c.RateLimitPerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) ParseDelay() time.Duration {
	if c.ParseDelayMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.ParseDelayMS) * time.Millisecond
}

// Location resolves the zone that decides what "today" means. Empty means
// the machine's local zone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
