package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	jsonparser "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema validates user-supplied JSON config files before they are
// unmarshalled, catching wrongly typed or out-of-range thresholds and
// an unknown output.format early rather than silently falling back to
// defaults. Keys the schema does not list are not rejected.
const configSchema = `{
  "type": "object",
  "properties": {
    "thresholds": {
      "type": "object",
      "properties": {
        "min_node_count_exact": {"type": "integer", "minimum": 1},
        "min_node_count_block": {"type": "integer", "minimum": 1},
        "min_block_lines": {"type": "integer", "minimum": 1}
      }
    },
    "index": {
      "type": "object",
      "properties": {
        "dir": {"type": "string"}
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "format": {"type": "string", "enum": ["text", "toon"]}
      }
    }
  }
}`

func validateJSON(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	schema, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(configSchema)))
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	if err := compiler.AddResource("config.schema.json", schema); err != nil {
		return fmt.Errorf("add config schema: %w", err)
	}
	sch, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config as json: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Config holds all configuration options for astrograph.
type Config struct {
	// Thresholds for significance filtering (spec.md §4.5).
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// File exclusion patterns applied by the corpus scanner.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Index controls the persistent fingerprint/suppression store.
	Index IndexConfig `koanf:"index"`

	// Output settings for the CLI and reporter.
	Output OutputConfig `koanf:"output"`

	// Languages restricts analysis to a subset of registered plugin ids.
	// Empty means all registered languages.
	Languages []string `koanf:"languages"`
}

// ThresholdConfig mirrors the options enumerated in spec.md §6 analyze().
type ThresholdConfig struct {
	MinNodeCountExact int  `koanf:"min_node_count_exact"`
	MinNodeCountBlock int  `koanf:"min_node_count_block"`
	MinBlockLines     int  `koanf:"min_block_lines"`
	IncludeBlocks     bool `koanf:"include_blocks"`
}

// ExcludeConfig defines file exclusion patterns honored by pkg/scanner,
// layered on top of .gitignore.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// IndexConfig controls the on-disk metadata directory (spec.md §6).
type IndexConfig struct {
	Dir          string `koanf:"dir"`
	EventDriven  bool   `koanf:"event_driven"`
	WatchDebounceMS int `koanf:"watch_debounce_ms"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults, matching the
// default thresholds named in spec.md §4.5.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			MinNodeCountExact: 5,
			MinNodeCountBlock: 10,
			MinBlockLines:     3,
			IncludeBlocks:     true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.go",
				"*_test.ts",
				"*_test.py",
				"*.min.js",
				"*.min.css",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".metadata_astrograph",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Index: IndexConfig{
			Dir:             ".metadata_astrograph",
			EventDriven:     false,
			WatchDebounceMS: 500,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = jsonparser.Parser()
	default:
		// Any other extension is parsed as TOML
		parser = toml.Parser()
	}

	if ext == ".json" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := validateJSON(raw); err != nil {
			return nil, err
		}
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	// Standard config file names to search for
	configNames := []string{
		"astrograph.toml",
		"astrograph.yaml",
		"astrograph.yml",
		"astrograph.json",
		".astrograph.toml",
		".astrograph.yaml",
		".astrograph.yml",
		".astrograph.json",
	}

	// Search in current directory and the metadata directory.
	searchDirs := []string{".", ".metadata_astrograph"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from the corpus scan,
// independent of .gitignore handling (which pkg/scanner layers on top).
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}

	return false
}
