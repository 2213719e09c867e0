package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

type Config struct {
	Version  int           `toml:"version"`
	Paths    Paths         `toml:"paths"`
	RefMaps  []RefMapEntry `toml:"refmaps"`
	Mappings []string      `toml:"mappings"`
	DB       Database      `toml:"db"`
	Filters  Filters       `toml:"filters"`
	Watch    Watch         `toml:"watch"`
	Metrics  Metrics       `toml:"metrics"`
}

type Paths struct {
	OutputDir string `toml:"output_dir"`
}

// RefMapEntry names one refmap resource to process. Context selects the
// logical sub-mapping within the resource; empty means the default set.
type RefMapEntry struct {
	Name    string `toml:"name"`
	Path    string `toml:"path"`
	Context string `toml:"context"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	ProjectKey  string        `toml:"project_key"`
}

type Filters struct {
	Include []string `toml:"include"` // Class-scope patterns to process
	Exclude []string `toml:"exclude"` // Class-scope patterns to skip
}

type Watch struct {
	Debounce          time.Duration `toml:"debounce"`
	MaxRebuildsPerSec float64       `toml:"max_rebuilds_per_sec"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateRefMaps(&cfg); err != nil {
		return nil, err
	}
	if err := validateMappings(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateFilters(&cfg); err != nil {
		return nil, err
	}
	if err := validateMetrics(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.OutputDir) == "" {
		cfg.Paths.OutputDir = "out"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "mappings.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSec <= 0 {
		cfg.Watch.MaxRebuildsPerSec = 1
	}

	if strings.TrimSpace(cfg.Metrics.Address) == "" {
		cfg.Metrics.Address = "127.0.0.1:9773"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; only version 1 is supported", cfg.Version)
	}
	return nil
}

func validateRefMaps(cfg *Config) error {
	if len(cfg.RefMaps) == 0 {
		return fmt.Errorf("at least one [[refmaps]] entry is required")
	}

	seen := make(map[string]bool, len(cfg.RefMaps))
	for i, entry := range cfg.RefMaps {
		ref := fmt.Sprintf("refmaps[%d]", i)
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		if strings.TrimSpace(entry.Path) == "" {
			return fmt.Errorf("%s.path must not be empty", ref)
		}
		if seen[name] {
			return fmt.Errorf("duplicate refmap name %q", name)
		}
		seen[name] = true
	}
	return nil
}

func validateMappings(cfg *Config) error {
	for i, path := range cfg.Mappings {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("mappings[%d] must not be empty", i)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled=true")
	}
	return nil
}

func validateFilters(cfg *Config) error {
	for _, pattern := range append(append([]string{}, cfg.Filters.Include...), cfg.Filters.Exclude...) {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("filter patterns must not be empty")
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Address) == "" {
		return fmt.Errorf("metrics.address must not be empty when metrics.enabled=true")
	}
	return nil
}
