package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kryon.toml")
	body := `
backend = "remote"
log_level = "debug"
script_budget_ms = 50
viewport_width = 1280
viewport_height = 720
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "remote" || cfg.ScriptBudgetMS != 50 || cfg.ViewportWidth != 1280 {
		t.Errorf("cfg = %+v", cfg)
	}
	// Keys absent from the file keep their defaults.
	if cfg.RemoteAddr != Default().RemoteAddr {
		t.Errorf("remote addr = %q, want default", cfg.RemoteAddr)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("backend = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML accepted")
	}
}
