package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebPort != 8080 || cfg.ParseDelay() != 300*time.Millisecond || cfg.CacheTTL() != time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisEnabled() {
		t.Fatalf("expected cache disabled by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"db_path":"/tmp/plan.db","web_port":9000,"parse_delay_ms":150}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LAZYPLAN_WEB_PORT", "9100")
	t.Setenv("LAZYPLAN_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/plan.db" {
		t.Fatalf("expected db path from file, got %q", cfg.DBPath)
	}
	if cfg.WebPort != 9100 {
		t.Fatalf("expected env to override port, got %d", cfg.WebPort)
	}
	if cfg.ParseDelay() != 150*time.Millisecond {
		t.Fatalf("expected parse delay from file, got %s", cfg.ParseDelay())
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected untouched default burst, got %d", cfg.RateLimitBurst)
	}
	if !cfg.RedisEnabled() {
		t.Fatalf("expected cache enabled from env")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.DBPath = "plan.db"
	cfg.WebEnabled = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DBPath != "plan.db" || !loaded.WebEnabled {
		t.Fatalf("expected saved values, got %+v", loaded)
	}
}

func TestSaveKeepsEnvironmentOffDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"web_port":9000}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LAZYPLAN_REDIS_PASSWORD", "s3cret")
	t.Setenv("LAZYPLAN_TZ", "UTC")
	t.Setenv("LAZYPLAN_RATE_BURST", "99")

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	cfg, err := ApplyEnv(fileCfg)
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.RedisPassword != "s3cret" || cfg.Timezone != "UTC" || cfg.RateLimitBurst != 99 {
		t.Fatalf("expected env values at runtime, got %+v", cfg)
	}

	if err := Save(path, fileCfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, leaked := range []string{"s3cret", "UTC", "99"} {
		if strings.Contains(string(data), leaked) {
			t.Fatalf("expected %q to stay out of the file, got %s", leaked, data)
		}
	}
	if !strings.Contains(string(data), "9000") {
		t.Fatalf("expected file values to be kept, got %s", data)
	}

	// The password is never written even when it is set on the config.
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "s3cret") {
		t.Fatalf("expected redis password to be env-only, got %s", data)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local zone, got %v %v", loc, err)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}

	cfg.Timezone = "Nowhere/Special"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid timezone to fail validation")
	}
}
