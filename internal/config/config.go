// Package config loads checker options from YAML, the way the teacher's
// manifest loader reads its own YAML-based configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vela-lang/velac/internal/ast"
)

// Options are the two configuration options §6 enumerates, plus the debug
// flag the teacher's CoreTypeChecker carries.
type Options struct {
	IsBuiltinModuleVisible bool       `yaml:"builtin_module_visible"`
	InferenceTracingSite   *ast.Pos   `yaml:"trace_site,omitempty"`
	DebugMode              bool       `yaml:"-"` // set only from VELA_DEBUG_TRACE, never from file
}

// Default returns the zero-value options a checker run uses absent any
// file or flags.
func Default() *Options {
	return &Options{}
}

// Load reads path as YAML into an Options value. A missing file is not an
// error: callers get Default().
func Load(path string) (*Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	opts.DebugMode = os.Getenv("VELA_DEBUG_TRACE") == "1"
	return opts, nil
}
