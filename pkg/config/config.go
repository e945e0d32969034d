package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalid indicates a configuration that must abort the run before any
// file is processed. All other failures in doppel are per-file and non-fatal.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration options for doppel.
type Config struct {
	// Fingerprint settings for the winnowing pipeline
	Fingerprint FingerprintConfig `koanf:"fingerprint" toml:"fingerprint"`

	// Scan settings for submission discovery
	Scan ScanConfig `koanf:"scan" toml:"scan"`

	// Report settings
	Report ReportConfig `koanf:"report" toml:"report"`

	// Workers bounds the parallel worker pool. 0 means NumCPU.
	Workers int `koanf:"workers" toml:"workers"`
}

// FingerprintConfig controls the k-gram and winnowing parameters.
type FingerprintConfig struct {
	// KGramSize is the number of consecutive tokens hashed per k-gram.
	KGramSize int `koanf:"kgram_size" toml:"kgram_size"`

	// WindowSize is the winnowing window width in hashes.
	WindowSize int `koanf:"window_size" toml:"window_size"`
}

// ScanConfig controls submission discovery and preprocessing.
type ScanConfig struct {
	// TargetFile is the submission file name to compare (e.g. "alu.v").
	TargetFile string `koanf:"target_file" toml:"target_file"`

	// TemplateFile points at instructor boilerplate whose lines are
	// stripped from submissions before parsing. Empty disables stripping.
	TemplateFile string `koanf:"template_file" toml:"template_file"`

	// Patterns are glob patterns of file names to skip.
	Patterns []string `koanf:"patterns" toml:"patterns"`

	// KeepExtracted leaves extracted archive directories on disk.
	KeepExtracted bool `koanf:"keep_extracted" toml:"keep_extracted"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	Dir    string `koanf:"dir" toml:"dir"`
	Format string `koanf:"format" toml:"format"` // text, json, markdown

	// Threshold highlights pairs at or above this score. Purely cosmetic;
	// all pairs are always reported.
	Threshold float64 `koanf:"threshold" toml:"threshold"`
}

// DefaultConfig returns a config with sensible defaults.
// K-gram and window defaults match the reference tuning (n=5, w=10).
func DefaultConfig() *Config {
	return &Config{
		Fingerprint: FingerprintConfig{
			KGramSize:  5,
			WindowSize: 10,
		},
		Scan: ScanConfig{
			Patterns: []string{
				"._*",
			},
		},
		Report: ReportConfig{
			Dir:       "report",
			Format:    "text",
			Threshold: 0.8,
		},
		Workers: 0,
	}
}

// Validate fails fast on parameters the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Fingerprint.KGramSize < 1 {
		return fmt.Errorf("%w: kgram_size must be >= 1 (got %d)", ErrInvalid, c.Fingerprint.KGramSize)
	}
	if c.Fingerprint.WindowSize < 1 {
		return fmt.Errorf("%w: window_size must be >= 1 (got %d)", ErrInvalid, c.Fingerprint.WindowSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0 (got %d)", ErrInvalid, c.Workers)
	}
	if c.Report.Threshold < 0 || c.Report.Threshold > 1 {
		return fmt.Errorf("%w: report threshold must be in [0,1] (got %g)", ErrInvalid, c.Report.Threshold)
	}
	return nil
}

// WorkerCount resolves the effective pool size.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"doppel.toml",
		"doppel.yaml",
		"doppel.yml",
		"doppel.json",
		".doppel.toml",
		".doppel.yaml",
		".doppel.yml",
		".doppel.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			cfg, err := Load(name)
			if err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldSkip checks if a file name matches a configured skip pattern.
func (c *Config) ShouldSkip(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Scan.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
