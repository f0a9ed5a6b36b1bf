package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querychain/internal/chain"
)

// yamlFile is the on-disk YAML template format:
//
//	collections:
//	  users:
//	    - name: username
//	      kind: text
//	    - name: role
//	      kind: select
//	      options: [admin, member]
type yamlFile struct {
	Collections map[string][]yamlField `yaml:"collections"`
}

type yamlField struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Operators []string `yaml:"operators,omitempty"`
	Options   []string `yaml:"options,omitempty"`
}

// LoadYAML reads a YAML template file.
func LoadYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	reg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseYAML parses templates from YAML. Unknown keys are rejected.
// Collections are registered in name order; fields keep their list order.
func ParseYAML(data []byte) (*Registry, error) {
	var file yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Collections) == 0 {
		return nil, &CompileError{Field: "collections", Message: "no collections declared"}
	}

	names := make([]string, 0, len(file.Collections))
	for name := range file.Collections {
		names = append(names, name)
	}
	slices.Sort(names)

	reg := NewRegistry()
	for _, name := range names {
		fields := make([]FieldTemplate, 0, len(file.Collections[name]))
		for _, yf := range file.Collections[name] {
			f := FieldTemplate{
				Name:    yf.Name,
				Kind:    Kind(yf.Kind),
				Options: yf.Options,
			}
			for _, op := range yf.Operators {
				f.Operators = append(f.Operators, chain.Operator(op))
			}
			fields = append(fields, f)
		}
		if err := reg.Add(name, fields); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Load reads templates from a directory of CUE files or a single YAML file.
func Load(path string) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("templates path: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("templates path %s: want a directory of .cue files or a .yaml file", path)
	}
}
