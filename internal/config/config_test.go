package config_test

import (
	"strings"
	"testing"

	"github.com/flottenwerk/konsole/internal/config"
)

func TestRead_AppliesDefaults(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(`
[fleet_api]
base_url = "https://flotte-api.example.com"
`))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Listen != ":8700" {
		t.Errorf("Listen: got %q, want :8700", cfg.Listen)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize: got %d, want 25", cfg.PageSize)
	}
	if cfg.FleetAPI.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds: got %d, want 15", cfg.FleetAPI.TimeoutSeconds)
	}
	if cfg.FleetAPI.BaseURL != "https://flotte-api.example.com" {
		t.Errorf("BaseURL: got %q", cfg.FleetAPI.BaseURL)
	}
}

func TestRead_FullFile(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(`
listen = ":9000"
page_size = 50

[fleet_api]
base_url = "http://localhost:8000"
timeout_seconds = 5
`))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Listen != ":9000" || cfg.PageSize != 50 || cfg.FleetAPI.TimeoutSeconds != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestRead_InvalidTOML(t *testing.T) {
	if _, err := config.Read(strings.NewReader("listen = [broken")); err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
}

func TestValidate_RequiresBaseURL(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing base URL, got nil")
	}
	cfg.FleetAPI.BaseURL = "http://localhost:8000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KONSOLE_LISTEN", ":7777")
	t.Setenv("KONSOLE_API_URL", "http://api.internal:8000")
	t.Setenv("KONSOLE_PAGE_SIZE", "10")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":7777" {
		t.Errorf("Listen: got %q, want :7777", cfg.Listen)
	}
	if cfg.FleetAPI.BaseURL != "http://api.internal:8000" {
		t.Errorf("BaseURL: got %q", cfg.FleetAPI.BaseURL)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize: got %d, want 10", cfg.PageSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/konsole.toml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
