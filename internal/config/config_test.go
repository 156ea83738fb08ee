package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.RefreshCron != "0 6 * * *" {
		t.Fatalf("defaults = %+v", cfg)
	}

	// First run writes the file with owner-only perms.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perms = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9999"
	cfg.Semesters = []SourceConfig{
		{ID: "spring26", URL: "https://example.edu/spring26.json"},
		{ID: "fall26", URL: "/data/fall26.json"},
	}
	cfg.Events = map[string][]string{"lecture": {"monday", "wednesday"}}
	cfg.RequiredHolidays = []string{"Presidents Day"}
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "sekrit"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Listen != cfg.Listen || len(got.Semesters) != 2 || got.Semesters[1].ID != "fall26" {
		t.Fatalf("round trip = %+v", got)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "admin" {
		t.Fatalf("basic auth = %+v", got.BasicAuth)
	}
	if got.RequiredHolidays[0] != "Presidents Day" {
		t.Fatalf("required holidays = %v", got.RequiredHolidays)
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		Semesters: []SourceConfig{{ID: "spring26", URL: "/data/spring26.json"}},
	}
	cfg.Normalize()

	if cfg.Active != "spring26" {
		t.Fatalf("Active = %q, want first semester", cfg.Active)
	}
	if cfg.Listen == "" || cfg.CacheDir == "" || cfg.RefreshCron == "" {
		t.Fatalf("normalize left zero values: %+v", cfg)
	}
	if cfg.Preview.Width != 1200 || cfg.Preview.Height != 1800 {
		t.Fatalf("preview defaults = %+v", cfg.Preview)
	}
}
