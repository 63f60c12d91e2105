// Package definition loads model definitions from YAML files and compiles
// them into models for a raster.
//
// One file holds one model:
//
//	name: cleaners
//	condition: 'status == "Planned" && has("cleaner")'
//	start: from
//	end: to
//	groups:
//	  - name: cleaner
//	    function: value
//	    params: {field: cleaner}
//	values:
//	  - name: shifts
//	    function: count
//	  - name: minutes
//	    function: interval_sum
//
// A bound or entry given as a plain string is shorthand for the value
// function reading the row field of that name.
package definition

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	rerr "github.com/aevon-lab/raster/internal/core/errors"
	"github.com/aevon-lab/raster/internal/core/function"
	"github.com/aevon-lab/raster/internal/core/model"
)

// Field declares one entry of a model.
type Field struct {
	Name     string       `yaml:"name"`
	Function string       `yaml:"function"`
	Params   model.Params `yaml:"params"`
}

// UnmarshalYAML accepts either a mapping or a bare field name.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*f = valueField(name)
		return nil
	}

	type plain Field
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = Field(p)
	if f.Function == "" {
		*f = valueField(f.Name)
	}
	return nil
}

func valueField(name string) Field {
	return Field{Name: name, Function: function.NameValue, Params: model.Params{"field": name}}
}

// Definition is a model as declared on disk.
type Definition struct {
	Name      string  `yaml:"name"`
	Condition string  `yaml:"condition"`
	Start     Field   `yaml:"start"`
	End       Field   `yaml:"end"`
	Groups    []Field `yaml:"groups"`
	Values    []Field `yaml:"values"`

	// Path and Fingerprint are set by the loader. The fingerprint is the
	// SHA-256 of the raw file.
	Path        string `yaml:"-"`
	Fingerprint string `yaml:"-"`
}

// Validate checks the declaration without resolving functions.
func (d Definition) Validate() error {
	if d.Start.Name == "" {
		return fmt.Errorf("%w: model %q: start must not be empty", rerr.ErrInvalidModel, d.Name)
	}
	if d.End.Name == "" {
		return fmt.Errorf("%w: model %q: end must not be empty", rerr.ErrInvalidModel, d.Name)
	}
	seen := make(map[string]bool)
	for _, f := range d.fields() {
		if f.Name == "" {
			return fmt.Errorf("%w: model %q: entry name must not be empty", rerr.ErrInvalidModel, d.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: model %q: duplicate entry %q", rerr.ErrInvalidModel, d.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (d Definition) fields() []Field {
	out := []Field{d.Start, d.End}
	out = append(out, d.Groups...)
	return append(out, d.Values...)
}

// Parse decodes a single definition from data.
func Parse(data []byte) (Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Definition{}, err
	}
	d.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
	return d, nil
}

// Load reads every *.yaml and *.yml file in dir in lexical order. A missing
// directory yields no definitions. Files without a name are skipped.
func Load(dir string) ([]Definition, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("model definition dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model definition path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading model definition dir: %w", err)
	}

	var defs []Definition
	names := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading model file %s: %w", path, err)
		}

		d, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing model file %s: %w", path, err)
		}
		if d.Name == "" {
			continue
		}
		d.Path = path

		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("model file %s: %w", path, err)
		}
		if prev, exists := names[d.Name]; exists {
			return nil, fmt.Errorf("%w: %q declared in %s and %s", rerr.ErrDuplicateModel, d.Name, prev, path)
		}
		names[d.Name] = path

		slog.Debug("Loaded model definition", "model", d.Name, "path", path, "fingerprint", d.Fingerprint[:12])
		defs = append(defs, d)
	}
	return defs, nil
}

// Require fails unless every name in required is among defs.
func Require(defs []Definition, required []string) error {
	have := make(map[string]bool, len(defs))
	for _, d := range defs {
		have[d.Name] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required model(s) not defined: %s", rerr.ErrUnknownModel, strings.Join(missing, ", "))
	}
	return nil
}
