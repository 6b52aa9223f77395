package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one reconciliation scenario: an operation, its input,
// and assertions over the output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Operation is one of clean, coalesce, or combine.
	Operation string `yaml:"operation"`

	// IdentityField names the record identity field. Empty means "urn".
	IdentityField string `yaml:"identity_field,omitempty"`

	// Strategies holds strategy overrides in the strategy YAML format,
	// applied on top of the built-in table.
	Strategies yaml.Node `yaml:"strategies,omitempty"`

	// Store lists records available to resolve identity-only sibling
	// references.
	Store []any `yaml:"store,omitempty"`

	// Input is a record, or a list of records for combine.
	Input any `yaml:"input"`

	// Assertions validate the output.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates part of a scenario's output.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is a dotted path into the output. Numeric segments index arrays.
	Path string `yaml:"path,omitempty"`

	// Value is the expected value (equals, contains).
	Value any `yaml:"value,omitempty"`

	// Count is the expected number of entries (length).
	Count int `yaml:"count,omitempty"`

	// Key is the dotted path of each element's identity (identities).
	// Empty means the scenario's identity field.
	Key string `yaml:"key,omitempty"`

	// IDs is the expected identity order (identities).
	IDs []string `yaml:"ids,omitempty"`
}

// Operation names.
const (
	OpClean    = "clean"
	OpCoalesce = "coalesce"
	OpCombine  = "combine"
)

// Assertion type constants.
const (
	AssertEquals         = "equals"
	AssertAbsent         = "absent"
	AssertLength         = "length"
	AssertContains       = "contains"
	AssertIdentities     = "identities"
	AssertInputUnchanged = "input_unchanged"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", filepath.Base(path), err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch s.Operation {
	case OpClean, OpCoalesce, OpCombine:
	case "":
		return fmt.Errorf("operation is required")
	default:
		return fmt.Errorf("unknown operation %q", s.Operation)
	}

	if s.Input == nil {
		return fmt.Errorf("input is required")
	}
	if s.Operation == OpCombine {
		if _, ok := s.Input.([]any); !ok {
			return fmt.Errorf("combine input must be a list of records")
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEquals, AssertContains:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for absent", index)
		}
	case AssertLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	case AssertIdentities:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for identities", index)
		}
	case AssertInputUnchanged:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
