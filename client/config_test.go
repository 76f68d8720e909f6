package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	data := `
base_url: https://api.foodsave.kz/api
timeout: 10s
ttl:
  orders: 45s
retry:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.BaseURL != "https://api.foodsave.kz/api" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.TTL.Orders != 45*time.Second {
		t.Errorf("TTL.Orders = %v, want 45s", cfg.TTL.Orders)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}

	// Unset fields keep their defaults.
	if cfg.TTL.Stores != 10*time.Minute {
		t.Errorf("TTL.Stores = %v, want default 10m", cfg.TTL.Stores)
	}
	if cfg.AuthThrottle != 5*time.Second {
		t.Errorf("AuthThrottle = %v, want default 5s", cfg.AuthThrottle)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() on a missing file should error")
	}

	cfg := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.BaseURL != "/api" || cfg.PageSize != 20 {
		t.Errorf("LoadConfigOrDefault() = %+v, want defaults", cfg)
	}
}

func TestConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://staging.foodsave.kz/api")
	t.Setenv("STOREFRONT_TIMEOUT", "7s")

	cfg := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))

	if cfg.BaseURL != "https://staging.foodsave.kz/api" {
		t.Errorf("BaseURL = %q, want environment override", cfg.BaseURL)
	}
	if cfg.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", cfg.Timeout)
	}
}

func TestConfig_NormalizedFillsGaps(t *testing.T) {
	cfg := Config{PageSize: 50, MaxPageSize: 10}.normalized()

	if cfg.MaxPageSize < cfg.PageSize {
		t.Errorf("MaxPageSize = %d below PageSize %d", cfg.MaxPageSize, cfg.PageSize)
	}
	if cfg.Timeout == 0 || cfg.TTL.Products == 0 || cfg.Retry.MaxAttempts == 0 {
		t.Errorf("normalized() left zero values: %+v", cfg)
	}
}
