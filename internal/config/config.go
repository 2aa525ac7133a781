// Package config loads napigen.toml, the generator's project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project file napigen looks for.
const FileName = "napigen.toml"

// Config is the generator configuration.
type Config struct {
	Module   ModuleConfig   `toml:"module"`
	Generate GenerateConfig `toml:"generate"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
	// Root is the directory relative paths are resolved against.
	Root string `toml:"-"`
}

// ModuleConfig describes the addon module.
type ModuleConfig struct {
	Name        string `toml:"name"`         // name reported to the host
	Package     string `toml:"package"`      // import path owning the bootstrap
	NapiVersion int    `toml:"napi_version"` // Node-API version reported to the host
}

// GenerateConfig controls a generator run.
type GenerateConfig struct {
	Patterns []string `toml:"patterns"`
	Jobs     int      `toml:"jobs"`
	Manifest string   `toml:"manifest"`
	Output   string   `toml:"output"` // bindings file name
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Module: ModuleConfig{
			NapiVersion: 8,
		},
		Generate: GenerateConfig{
			Patterns: []string{"./..."},
			Jobs:     runtime.GOMAXPROCS(0),
			Manifest: ".napigen/manifest.db",
			Output:   "zz_napi_bindings.go",
		},
		Root: ".",
	}
}

// Find walks up from startDir looking for napigen.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the configuration at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the project file found from startDir, or the defaults if
// there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the configuration for values the generator cannot use.
func (c *Config) Validate() error {
	if c.Generate.Jobs < 1 {
		return fmt.Errorf("[generate].jobs must be at least 1, got %d", c.Generate.Jobs)
	}
	if c.Module.NapiVersion < 1 {
		return fmt.Errorf("[module].napi_version must be at least 1, got %d", c.Module.NapiVersion)
	}
	out := strings.TrimSpace(c.Generate.Output)
	if out == "" || filepath.Base(out) != out || !strings.HasSuffix(out, ".go") {
		return fmt.Errorf("[generate].output must be a .go file name, got %q", c.Generate.Output)
	}
	if len(c.Generate.Patterns) == 0 {
		return errors.New("[generate].patterns must not be empty")
	}
	return nil
}

// ManifestPath returns the manifest path resolved against Root.
func (c *Config) ManifestPath() string {
	if c.Generate.Manifest == ":memory:" || filepath.IsAbs(c.Generate.Manifest) {
		return c.Generate.Manifest
	}
	return filepath.Join(c.Root, c.Generate.Manifest)
}
