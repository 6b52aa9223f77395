package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// ConfigError reports an invalid strategy configuration entry.
// Pos carries the CUE source position when the entry came from CUE.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads strategy overrides from path and overlays them on Default().
// A directory is loaded as a CUE package, a .cue file as a single CUE file,
// and a .yaml/.yml file as YAML.
func Load(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}

	t := Default()
	switch {
	case info.IsDir():
		err = LoadCUEDir(path, t)
	case filepath.Ext(path) == ".cue":
		err = LoadCUEFile(path, t)
	case filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml":
		err = LoadYAMLFile(path, t)
	default:
		return nil, fmt.Errorf("strategy config: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// LoadCUEDir loads the CUE package in dir and applies it to t.
func LoadCUEDir(dir string, t *Table) error {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fmt.Errorf("strategy config: no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return formatCUEError(inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	return ApplyCUE(v, t)
}

// LoadCUEFile compiles a single CUE file and applies it to t.
func LoadCUEFile(path string, t *Table) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("strategy config: %w", err)
	}
	return ApplyCUESource(data, path, t)
}

// ApplyCUESource compiles CUE source text and applies it to t.
func ApplyCUESource(src []byte, filename string, t *Table) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	return ApplyCUE(v, t)
}

// ApplyCUE applies a compiled CUE value of the form
//
//	strategies: {
//		glossaryTerms: {kind: "union_by_key", key: "term.urn"}
//		lineage:       {kind: "primary_wins"}
//	}
//	remove: ["forms"]
//
// to t. Both fields are optional. Either every entry is applied or, on
// error, t is left unchanged.
func ApplyCUE(v cue.Value, t *Table) error {
	work := t.Clone()
	if err := applyCUE(v, work); err != nil {
		return err
	}
	t.replace(work)
	return nil
}

func applyCUE(v cue.Value, t *Table) error {
	removeVal := v.LookupPath(cue.ParsePath("remove"))
	if removeVal.Exists() {
		iter, err := removeVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return formatCUEError(err)
			}
			t.Unregister(name)
		}
	}

	strategiesVal := v.LookupPath(cue.ParsePath("strategies"))
	if !strategiesVal.Exists() {
		return nil
	}

	iter, err := strategiesVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		field := iter.Label()
		entry := iter.Value()

		kindName, err := entry.LookupPath(cue.ParsePath("kind")).String()
		if err != nil {
			return &ConfigError{
				Field:   field,
				Message: "kind is required and must be a string",
				Pos:     entry.Pos(),
			}
		}

		var key string
		keyVal := entry.LookupPath(cue.ParsePath("key"))
		if keyVal.Exists() {
			key, err = keyVal.String()
			if err != nil {
				return formatCUEError(err)
			}
		}

		if err := register(t, field, kindName, key); err != nil {
			return &ConfigError{Field: field, Message: err.Error(), Pos: entry.Pos()}
		}
	}
	return nil
}

// yamlConfig mirrors the CUE layout for YAML files.
type yamlConfig struct {
	Strategies map[string]yamlStrategy `yaml:"strategies"`
	Remove     []string                `yaml:"remove"`
}

type yamlStrategy struct {
	Kind string `yaml:"kind"`
	Key  string `yaml:"key"`
}

// LoadYAMLFile reads a YAML strategy file and applies it to t.
func LoadYAMLFile(path string, t *Table) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("strategy config: %w", err)
	}
	if err := ApplyYAML(data, t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ApplyYAML parses YAML strategy overrides and applies them to t. On error
// t is left unchanged.
func ApplyYAML(data []byte, t *Table) error {
	var cfg yamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("strategy config: %w", err)
	}

	work := t.Clone()
	for _, name := range cfg.Remove {
		work.Unregister(name)
	}

	// Sorted so the first reported error is stable.
	fields := make([]string, 0, len(cfg.Strategies))
	for field := range cfg.Strategies {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		entry := cfg.Strategies[field]
		if err := register(work, field, entry.Kind, entry.Key); err != nil {
			return &ConfigError{Field: field, Message: err.Error()}
		}
	}
	t.replace(work)
	return nil
}

func register(t *Table, field, kindName, key string) error {
	kind, err := ParseKind(kindName)
	if err != nil {
		return err
	}
	return t.Register(field, Strategy{Kind: kind, Key: key})
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &ConfigError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
