// internal/config/config.go

package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the launch configuration. Values come from an optional TOML
// file overlaid with command-line flags; flags win.
type Config struct {
	Backend        string `toml:"backend"` // native2d | gpu (both raylib) | remote
	LogLevel       string `toml:"log_level"`
	ScriptBudgetMS int    `toml:"script_budget_ms"`
	ViewportWidth  int    `toml:"viewport_width"`
	ViewportHeight int    `toml:"viewport_height"`
	RemoteAddr     string `toml:"remote_addr"`
}

func Default() Config {
	return Config{
		Backend:        "native2d",
		LogLevel:       "info",
		ScriptBudgetMS: 0, // unlimited
		ViewportWidth:  800,
		ViewportHeight: 600,
		RemoteAddr:     ":8190",
	}
}

// Load reads a TOML config file over the defaults. A missing path is not an
// error; a malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return cfg, nil
}
