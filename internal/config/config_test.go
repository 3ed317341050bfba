package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := validConfig(t)

	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Fatalf("default interval = %v, want 15m", cfg.Scheduler.Interval)
	}
	if cfg.Scanner.AcceptTier != 2 {
		t.Fatalf("default accept tier = %d, want 2", cfg.Scanner.AcceptTier)
	}
	if cfg.FeeRate() != 0.007 {
		t.Fatalf("default kalshi fee = %v, want 0.007", cfg.FeeRate())
	}
	if _, ok := cfg.Forecast.Cities["nyc"]; !ok {
		t.Fatal("default city table must include nyc")
	}
	if p, ok := cfg.SeriesFor("GDP"); !ok || p.Sigma != 1.0 || p.Bias != 0.3 {
		t.Fatalf("GDP series params = %+v (ok=%v)", p, ok)
	}
	if _, ok := cfg.SeriesFor("nope"); ok {
		t.Fatal("unknown series must not resolve")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }, "scheduler.interval"},
		{"accept tier out of range", func(c *Config) { c.Scanner.AcceptTier = 12 }, "accept_tier"},
		{"no workers", func(c *Config) { c.Scanner.Workers = 0 }, "workers"},
		{"inverted sizing ladder", func(c *Config) { c.Scanner.SmallMaxCents = 20 }, "small_max_cents"},
		{"non-positive sigma", func(c *Config) { c.Series["GDP"] = SeriesParams{Sigma: 0} }, "sigma"},
		{"empty fee table", func(c *Config) { c.Fees = nil }, "fees"},
		{"fee out of range", func(c *Config) { c.Fees["kalshi"] = 1.5 }, "fees.kalshi"},
		{"missing exchange fee", func(c *Config) { c.Exchange.Name = "polymarket" }, "no entry for exchange"},
		{"telegram without token", func(c *Config) {
			c.Alerting.Telegram.Enabled = true
			c.Alerting.Telegram.ChatID = "123"
		}, "bot_token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := validConfig(t)
	if got := cfg.ResolveMaxPoints(0); got != cfg.Export.MaxDataPoints {
		t.Fatalf("zero override should fall back to config, got %d", got)
	}
	if got := cfg.ResolveMaxPoints(500); got != 500 {
		t.Fatalf("override should win, got %d", got)
	}
}
