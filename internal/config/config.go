package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"reanalyzer/internal/diag"
)

// FileNames are the config file names searched by Find, in priority order.
var FileNames = []string{"reanalyzer.toml", ".reanalyzer.toml"}

const (
	DefaultMaxLineLength = 120
	DefaultDartBinary    = "dart"
	DefaultQueryAddress  = "127.0.0.1:9000"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvDartBinary    = "REANALYZER_DART_BINARY"
	EnvMaxLineLength = "REANALYZER_MAX_LINE_LENGTH"
	EnvQueryAddress  = "REANALYZER_QUERY_ADDR"
)

// Config is the analyzer configuration stored in reanalyzer.toml.
type Config struct {
	Enabled         bool          `toml:"enabled"`
	ExcludePatterns []string      `toml:"exclude_patterns"`
	StyleRules      RuleSetConfig `toml:"style_rules"`
	RuntimeRules    RuleSetConfig `toml:"runtime_rules"`
	MaxLineLength   int           `toml:"max_line_length"`
	Parallel        bool          `toml:"parallel"`
	DartBinary      string        `toml:"dart_binary"`
	Query           QueryConfig   `toml:"query"`
}

// RuleSetConfig toggles one rule category.
type RuleSetConfig struct {
	Enabled       bool     `toml:"enabled"`
	DisabledRules []string `toml:"disabled_rules"`
}

// QueryConfig configures the line-delimited query server.
type QueryConfig struct {
	Address string `toml:"address"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Enabled: true,
		ExcludePatterns: []string{
			".dart_tool/**",
			"build/**",
			".pub/**",
			"packages/**",
		},
		StyleRules:    RuleSetConfig{Enabled: true, DisabledRules: []string{}},
		RuntimeRules:  RuleSetConfig{Enabled: true, DisabledRules: []string{}},
		MaxLineLength: DefaultMaxLineLength,
		Parallel:      true,
		Query:         QueryConfig{Address: DefaultQueryAddress},
	}
}

// Find walks up from startDir looking for one of FileNames.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path on top of Default, so omitted keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.MaxLineLength <= 0 {
		return Config{}, fmt.Errorf("%s: max_line_length must be positive", path)
	}
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest config file above
// startDir, otherwise Default. Environment overrides are applied last.
func Resolve(explicit, startDir string) (Config, string, error) {
	path := explicit
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, "", err
		}
		if ok {
			path = found
		}
	}
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, "", err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Save writes cfg as TOML.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: failed to encode TOML: %w", path, err)
	}
	return f.Close()
}

// IsRuleEnabled reports whether rule name in category is active.
func (c Config) IsRuleEnabled(name string, category diag.Category) bool {
	set := c.StyleRules
	if category == diag.CatRuntime {
		set = c.RuntimeRules
	}
	return set.Enabled && !slices.Contains(set.DisabledRules, name)
}

// DartCommand returns the binary used to launch the language server.
func (c Config) DartCommand() string {
	if strings.TrimSpace(c.DartBinary) == "" {
		return DefaultDartBinary
	}
	return c.DartBinary
}

// ApplyEnv overlays REANALYZER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDartBinary)); v != "" {
		c.DartBinary = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxLineLength)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: expected a positive integer, got %q", EnvMaxLineLength, v)
		}
		c.MaxLineLength = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvQueryAddress)); v != "" {
		c.Query.Address = v
	}
	return nil
}

// LoadDotEnv loads dir/.env into the process environment when present.
// Variables that are already set win.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
