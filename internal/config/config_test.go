package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/korjavin/foodatease/internal/rating"
)

var envKeys = []string{
	"PORT", "DATA_DIR", "API_KEYS", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SCORE_WORKERS", "SCORE_MAX_BATCH",
}

// clearEnv blanks every variable Load reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Valid(t *testing.T) {
	clearEnv(t)
	yaml := `
server:
  port: "9090"
  data_dir: /var/lib/foodatease
  api_keys: [k1, k2]
  cors_origins: ["https://foodatease.in"]
  rate_limit:
    rps: 5
    burst: 10
  shutdown_timeout: 5s
scoring:
  workers: 4
  max_batch: 50
  daily_limits:
    sugar_g: 25
`
	cfg := loadFromString(t, yaml)

	if cfg.Server.Port != "9090" {
		t.Errorf("port: got %q", cfg.Server.Port)
	}
	if cfg.Server.DataDir != "/var/lib/foodatease" {
		t.Errorf("data_dir: got %q", cfg.Server.DataDir)
	}
	if !reflect.DeepEqual(cfg.Server.APIKeys, []string{"k1", "k2"}) {
		t.Errorf("api_keys: got %v", cfg.Server.APIKeys)
	}
	if cfg.Server.RateLimit != (RateLimitConfig{RPS: 5, Burst: 10}) {
		t.Errorf("rate_limit: got %+v", cfg.Server.RateLimit)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown_timeout: got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Scoring.Workers != 4 || cfg.Scoring.MaxBatch != 50 {
		t.Errorf("scoring: got %+v", cfg.Scoring)
	}

	want := rating.DefaultDailyLimits()
	want.SugarG = 25
	if cfg.Scoring.DailyLimits != want {
		t.Errorf("daily_limits: got %+v, want %+v", cfg.Scoring.DailyLimits, want)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("default port: got %q", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"*"}) {
		t.Errorf("default cors_origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.RateLimit.RPS != DefaultRateLimitRPS || cfg.Server.RateLimit.Burst != DefaultRateLimitBurst {
		t.Errorf("default rate_limit: got %+v", cfg.Server.RateLimit)
	}
	if cfg.Scoring.MaxBatch != DefaultMaxBatch {
		t.Errorf("default max_batch: got %d", cfg.Scoring.MaxBatch)
	}
	if cfg.Scoring.DailyLimits != rating.DefaultDailyLimits() {
		t.Errorf("default daily_limits: got %+v", cfg.Scoring.DailyLimits)
	}
	if len(cfg.Server.APIKeys) != 0 {
		t.Errorf("default api_keys: got %v", cfg.Server.APIKeys)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("API_KEYS", "a, b")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SCORE_WORKERS", "3")

	cfg := loadFromString(t, "server:\n  port: \"9090\"\n  api_keys: [file-key]\n")

	if cfg.Server.Port != "7070" {
		t.Errorf("port: got %q, want env value", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Server.APIKeys, []string{"a", "b"}) {
		t.Errorf("api_keys: got %v", cfg.Server.APIKeys)
	}
	if cfg.Server.RateLimit.RPS != 2.5 {
		t.Errorf("rps: got %v", cfg.Server.RateLimit.RPS)
	}
	if cfg.Scoring.Workers != 3 {
		t.Errorf("workers: got %d", cfg.Scoring.Workers)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	env := map[string]string{"RATE_LIMIT_BURST": "lots"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	err := applyEnv(defaults(), lookup)
	if err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_BURST") {
		t.Errorf("applyEnv error = %v; want RATE_LIMIT_BURST error", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad port":       "server:\n  port: http\n",
		"zero rps":       "server:\n  rate_limit:\n    rps: 0\n",
		"negative batch": "scoring:\n  max_batch: -1\n",
		"zero sodium":    "scoring:\n  daily_limits:\n    sodium_mg: 0\n",
		"bad yaml":       "server: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := loadStringErr(t, content); err == nil {
				t.Error("Load succeeded; want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded for missing file")
	}
}

func TestWatch_Reload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  api_keys: [old]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 64)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// renameOver saves like editors and config managers do: write a temp
	// file in the same directory, then rename it over path.
	renameOver := func(keys string) func() {
		return func() {
			tmp, err := os.CreateTemp(dir, ".config-*.yaml")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := tmp.WriteString("server:\n  api_keys: [" + keys + "]\n"); err != nil {
				t.Fatal(err)
			}
			if err := tmp.Close(); err != nil {
				t.Fatal(err)
			}
			if err := os.Rename(tmp.Name(), path); err != nil {
				t.Fatal(err)
			}
		}
	}
	writeInPlace := func(keys string) func() {
		return func() {
			if err := os.WriteFile(path, []byte("server:\n  api_keys: ["+keys+"]\n"), 0o600); err != nil {
				t.Fatal(err)
			}
		}
	}

	steps := []struct {
		name string
		save func()
		want string
	}{
		{"first rename-over save", renameOver("k1"), "k1"},
		{"second rename-over save", renameOver("k2"), "k2"},
		{"in-place write after renames", writeInPlace("k3"), "k3"},
	}
	for _, step := range steps {
		waitForKeys(t, changes, step.save, []string{step.want}, step.name)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

// waitForKeys repeats save until a reload reports want. The first save may
// race the watcher registration, and a truncating write can be observed
// half-way through, so intermediate reloads are ignored.
func waitForKeys(t *testing.T, changes <-chan *Config, save func(), want []string, step string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	save()
	for {
		select {
		case c := <-changes:
			if reflect.DeepEqual(c.Server.APIKeys, want) {
				return
			}
		case <-tick.C:
			save()
		case <-deadline:
			t.Fatalf("%s: no reload with keys %v observed", step, want)
		}
	}
}

func TestIsConfigEvent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create after rename", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"sibling temp file", fsnotify.Event{Name: filepath.Join(dir, ".config-123.yaml"), Op: fsnotify.Create}, false},
		{"unclean name", fsnotify.Event{Name: dir + "/./config.yaml", Op: fsnotify.Write}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isConfigEvent(tc.ev, target); got != tc.want {
				t.Errorf("isConfigEvent(%v) = %v; want %v", tc.ev, got, tc.want)
			}
		})
	}
}

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
