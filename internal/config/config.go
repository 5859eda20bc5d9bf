// Package config loads the ambient settings that shape a stirc run:
// heap sizing, the REPL history file, and the fixture suite `stirc test`
// runs by default. Trace settings are parsed but not read by any command.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HeapConfig tunes the interpreter's heap.
type HeapConfig struct {
	// InitialSlots preallocates heap capacity (index 0 stays reserved,
	// spec.md §3.5) so small programs don't pay for repeated growth.
	InitialSlots int `yaml:"initial_slots"`
}

// TraceConfig holds the trace settings from stirc.yml. They are parsed
// but not read: the REPL and CLI echo nothing based on them.
type TraceConfig struct {
	Steps bool `yaml:"steps"`
	Mem   bool `yaml:"mem"`
}

// Config is the full stirc.yml shape.
type Config struct {
	Heap HeapConfig `yaml:"heap"`
	Trace TraceConfig `yaml:"trace"`

	// HistoryFile is where the REPL persists its liner history between
	// sessions (empty means "don't persist").
	HistoryFile string `yaml:"history_file"`

	// BenchmarkSuite names the fixture programs `stirc test` runs with no
	// arguments, looked up in the built-in fixtures registry; names with
	// no known expected result are not run.
	BenchmarkSuite []string `yaml:"benchmark_suite"`
}

// Default is used whenever no stirc.yml is found.
var Default = Config{
	Heap:           HeapConfig{InitialSlots: 64},
	HistoryFile:    filepath.Join(os.TempDir(), ".stirc_history"),
	BenchmarkSuite: []string{"e1_arithmetic", "e2_list_sum", "e3_fip_reverse", "e4_tree_flip"},
}

// Load reads and parses a stirc.yml at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	return &cfg, nil
}

// Find walks up from startDir looking for a stirc.yml, the way the
// teacher's models.yml lookup walks up looking for a benchmarks/ dir.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "stirc.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("stirc.yml not found above %s", startDir)
}

// LoadFromCWD finds and loads stirc.yml starting from the current
// directory, falling back to Default when none is found.
func LoadFromCWD() *Config {
	path, err := Find(".")
	if err != nil {
		cfg := Default
		return &cfg
	}
	cfg, err := Load(path)
	if err != nil {
		fallback := Default
		return &fallback
	}
	return cfg
}
