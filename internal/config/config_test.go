package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.LedgerBackend != BackendFile {
		t.Errorf("expected default backend file, got %s", cfg.LedgerBackend)
	}
	if cfg.LedgerKey != "doctorAppointments" {
		t.Errorf("expected default ledger key, got %s", cfg.LedgerKey)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("expected 10s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.DBMaxConns != 5 {
		t.Errorf("expected default max conns 5, got %d", cfg.DBMaxConns)
	}
	if !strings.HasSuffix(cfg.SourceURL, "SRM-C1-25.json") {
		t.Errorf("unexpected default source url %s", cfg.SourceURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_BACKEND", " Redis ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("RATE_LIMIT_RPS", "7.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.LedgerBackend != BackendRedis {
		t.Errorf("expected backend redis, got %q", cfg.LedgerBackend)
	}
	if cfg.FetchTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.FetchTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitRPS != 7.5 {
		t.Errorf("expected 7.5 rps, got %v", cfg.RateLimitRPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			LedgerBackend: BackendFile,
			LedgerFile:    "./data/appointments.json",
			LedgerKey:     "doctorAppointments",
			FetchTimeout:  time.Second,
			DBMaxConns:    5,
			DBMinConns:    1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"file ok", func(c *Config) {}, ""},
		{"memory ok", func(c *Config) { c.LedgerBackend = BackendMemory; c.LedgerFile = "" }, ""},
		{"file without path", func(c *Config) { c.LedgerFile = "" }, "LEDGER_FILE"},
		{"redis without url", func(c *Config) { c.LedgerBackend = BackendRedis }, "REDIS_URL"},
		{"postgres without url", func(c *Config) { c.LedgerBackend = BackendPostgres }, "DATABASE_URL"},
		{"postgres ok", func(c *Config) { c.LedgerBackend = BackendPostgres; c.DatabaseURL = "postgres://x" }, ""},
		{"unknown backend", func(c *Config) { c.LedgerBackend = "sqlite" }, "LEDGER_BACKEND"},
		{"empty key", func(c *Config) { c.LedgerKey = "" }, "LEDGER_KEY"},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"min above max", func(c *Config) { c.DBMinConns = 10 }, "DB_MIN_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
