// Package workload runs scripted allocation workloads against a scope.
//
// A workload file is YAML:
//
//	name: two-node-cycle
//	max_bytes: 0
//	steps:
//	  - alloc a
//	  - alloc b
//	  - link a b
//	  - link b a
//	  - release a
//	  - release b
//	  - collect
//	  - expect records=0 bytes=0
//
// Each step is a shell-like command line; see [Runner.Exec] for commands.
package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// File is a parsed workload.
type File struct {
	Name     string   `yaml:"name" json:"name"`
	MaxBytes uint64   `yaml:"max_bytes,omitempty" json:"max_bytes,omitempty"`
	Steps    []string `yaml:"steps" json:"steps"`
}

// Parse decodes a workload. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse workload: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse workload %q: no steps", f.Name)
	}
	return &f, nil
}

// Load reads and parses the workload at path. The file name is used when
// the workload has no name of its own.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}
