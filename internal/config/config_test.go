package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: "9090"
  corsOrigins: ["http://localhost:3000"]
  rateLimit:
    rps: 5
    burst: 10
redis:
  addr: localhost:6379
  ttl: 1h
catalog:
  file: data/destinations.yaml
  ttl: 5m
auth:
  jwtSecret: s3cret
  tokenTTL: 30m
game:
  resetOnRegister: true
leaderboard:
  size: 50
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, key := range []string{"PORT", "DATABASE_URL", "REDIS_ADDR", "JWT_SECRET", "CORS_ORIGINS", "ADMIN_PASSWORD"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.RateLimit.Burst != 10 || cfg.Server.RateLimit.RPS != 5 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Game.ResetOnRegister || cfg.Leaderboard.Size != 50 {
		t.Fatalf("unexpected game config: %+v %+v", cfg.Game, cfg.Leaderboard)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != time.Hour {
		t.Fatalf("expected redis ttl 1h, got %v", got)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected auth/log config: %+v %+v", cfg.Auth, cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/globetrotter")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Redis.Addr != "cache:6379" || cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Postgres.URL != "postgres://u:p@db:5432/globetrotter" {
		t.Fatalf("unexpected postgres url %q", cfg.Postgres.URL)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("expected 2 cors origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 10 * time.Minute},
		{"90s", 90 * time.Second},
		{"not-a-duration", 10 * time.Minute},
	}
	for _, c := range cases {
		if got := TTLDuration(c.raw, 10*time.Minute); got != c.want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}
