package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ChildCodePrefix != "CHILD_" {
		t.Errorf("expected child prefix CHILD_, got %s", cfg.ChildCodePrefix)
	}
	if cfg.DisplayRefreshInterval != 30*time.Second {
		t.Errorf("expected 30s refresh interval, got %v", cfg.DisplayRefreshInterval)
	}
	if cfg.ValidationDebounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.ValidationDebounce)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DISPLAY_REFRESH_INTERVAL", "5s")
	t.Setenv("CHILD_CODE_PREFIX", "KIDS-")

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.DisplayRefreshInterval != 5*time.Second {
		t.Errorf("expected 5s refresh interval, got %v", cfg.DisplayRefreshInterval)
	}
	if cfg.ChildCodePrefix != "KIDS-" {
		t.Errorf("expected prefix KIDS-, got %s", cfg.ChildCodePrefix)
	}
}
