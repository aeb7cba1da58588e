package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/SignalLab/models"
)

// Sweep is an arena matrix read from YAML.
type Sweep struct {
	Strategy   string   `yaml:"strategy"`
	ModuleFile string   `yaml:"module"`
	Capital    float64  `yaml:"capital"`
	Days       int      `yaml:"days"`
	Symbols    []string `yaml:"symbols"`
	Intervals  []string `yaml:"intervals"`

	// Module holds the bytes of ModuleFile once loaded.
	Module []byte `yaml:"-"`
}

// LoadSweep reads a sweep file. The module path is resolved relative to
// the sweep file.
func LoadSweep(path string) (*Sweep, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}

	var sweep Sweep
	if err := yaml.Unmarshal(raw, &sweep); err != nil {
		return nil, fmt.Errorf("parsing sweep file %s: %w", path, err)
	}

	if sweep.ModuleFile == "" {
		return nil, errors.New("sweep file has no module")
	}
	if len(sweep.Symbols) == 0 || len(sweep.Intervals) == 0 {
		return nil, errors.New("sweep needs at least one symbol and one interval")
	}
	if sweep.Capital <= 0 {
		sweep.Capital = 10000
	}
	if sweep.Days <= 0 {
		sweep.Days = 30
	}

	sweep.Module, err = os.ReadFile(resolve(path, sweep.ModuleFile))
	if err != nil {
		return nil, fmt.Errorf("reading module: %w", err)
	}
	return &sweep, nil
}

// Signals is a signal manifest: definitions plus the stack to run.
type Signals struct {
	Signals []SignalEntry       `yaml:"signals"`
	Stack   []models.StackEntry `yaml:"stack"`
}

// SignalEntry is a definition whose WASM code may be given as a file.
type SignalEntry struct {
	models.SignalDefinition `yaml:",inline"`
	ModuleFile              string `yaml:"module_file"`
}

// LoadSignals reads a signal manifest. Kinds are normalised and
// module_file entries are base64-encoded into Code. Without an explicit
// stack every signal is stacked in file order.
func LoadSignals(path string) ([]models.SignalDefinition, []models.StackEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading signals file: %w", err)
	}

	var manifest Signals
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, nil, fmt.Errorf("parsing signals file %s: %w", path, err)
	}

	defs := make([]models.SignalDefinition, 0, len(manifest.Signals))
	seen := make(map[string]bool, len(manifest.Signals))
	for _, entry := range manifest.Signals {
		def := entry.SignalDefinition
		if def.ID == "" {
			return nil, nil, errors.New("signal without id")
		}
		if seen[def.ID] {
			return nil, nil, fmt.Errorf("duplicate signal id %q", def.ID)
		}
		seen[def.ID] = true

		def.Kind = models.ParseSignalKind(string(def.Kind))
		if def.Mode == "" {
			def.Mode = models.ModeSimulation
		}
		def.Mode = models.Mode(strings.ToLower(string(def.Mode)))

		if entry.ModuleFile != "" {
			module, err := os.ReadFile(resolve(path, entry.ModuleFile))
			if err != nil {
				return nil, nil, fmt.Errorf("reading module for signal %s: %w", def.ID, err)
			}
			def.Code = base64.StdEncoding.EncodeToString(module)
		}
		defs = append(defs, def)
	}

	stack := manifest.Stack
	if len(stack) == 0 {
		for _, def := range defs {
			stack = append(stack, models.StackEntry{SignalID: def.ID})
		}
	}
	return defs, stack, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(base), path)
}
