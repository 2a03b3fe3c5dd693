// Package config loads and saves simulator settings, grounded on the
// teacher's config.Config/DefaultConfig/Load/Save (config/config.go),
// collapsed from the teacher's five sections (execution, debugger,
// display, trace, statistics) to the three SPEC_FULL.md §2.1 actually
// needs for a one-shot simulator: execution, trace, display. The
// interactive debugger section has no counterpart here (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds simulator settings loaded from an rv32im.toml file.
type Config struct {
	Execution struct {
		MaxInstructions uint64 `toml:"max_instructions"`
		DefaultEntry    string `toml:"default_entry"`
		StackSize       uint   `toml:"stack_size"`
	} `toml:"execution"`

	Trace struct {
		Enabled        bool   `toml:"enabled"`
		OutputFile     string `toml:"output_file"`
		IncludeEffects bool   `toml:"include_effects"`
	} `toml:"trace"`

	Display struct {
		NumberFormat string `toml:"number_format"` // hex, dec
		ColorOutput  bool   `toml:"color_output"`
	} `toml:"display"`
}

// DefaultConfig returns a Config with the zero-config defaults the CLI
// driver runs with when no rv32im.toml is found, mirroring the teacher's
// DefaultConfig fallback behavior in Load.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxInstructions = 10_000_000
	cfg.Execution.DefaultEntry = "0x0"
	cfg.Execution.StackSize = 65536

	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.IncludeEffects = true

	cfg.Display.NumberFormat = "hex"
	cfg.Display.ColorOutput = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path: XDG on
// linux/darwin, %APPDATA% on windows, matching the teacher's
// GetConfigPath layout with the directory name changed to this
// simulator's own.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rv32im")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "rv32im.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rv32im")

	default:
		return "rv32im.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "rv32im.toml"
	}

	return filepath.Join(configDir, "rv32im.toml")
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to DefaultConfig
// when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path in TOML form.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
