package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.RowCacheTTL() != 30*time.Second {
		t.Fatalf("row cache TTL = %s", cfg.RowCacheTTL())
	}
	if cfg.FetchMinInterval() != 4*time.Second {
		t.Fatalf("fetch min interval = %s", cfg.FetchMinInterval())
	}
	if cfg.BreakerThreshold != 3 || cfg.BreakerCooldown() != 5*time.Minute {
		t.Fatalf("breaker defaults = %d / %s", cfg.BreakerThreshold, cfg.BreakerCooldown())
	}
	if cfg.NosCeiling != 20 || cfg.KgCeiling != 10.0 {
		t.Fatalf("capture ceilings = %d / %g", cfg.NosCeiling, cfg.KgCeiling)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ROW_CACHE_TTL_SECONDS", "60")
	t.Setenv("KG_CEILING", "25.5")
	t.Setenv("AUTH_SECRET", "  super-secret  ")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port override = %q", cfg.Port)
	}
	if cfg.RowCacheTTL() != time.Minute {
		t.Fatalf("row cache TTL override = %s", cfg.RowCacheTTL())
	}
	if cfg.KgCeiling != 25.5 {
		t.Fatalf("kg ceiling override = %g", cfg.KgCeiling)
	}
	if cfg.AuthSecret != "super-secret" {
		t.Fatalf("auth secret must be trimmed, got %q", cfg.AuthSecret)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("address = %q", cfg.Address())
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("BREAKER_THRESHOLD", "zero")
	t.Setenv("KG_CEILING", "-4")

	cfg := Load()
	if cfg.BreakerThreshold != 3 {
		t.Fatalf("garbage threshold must fall back, got %d", cfg.BreakerThreshold)
	}
	if cfg.KgCeiling != 10.0 {
		t.Fatalf("non-positive ceiling must fall back, got %g", cfg.KgCeiling)
	}
}
