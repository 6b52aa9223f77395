package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/siblingmerge/internal/ir"
)

// Snapshot is the golden form of a scenario execution.
type Snapshot struct {
	ScenarioName string
	Operation    string
	Output       ir.Value
}

// toValue converts the snapshot to a value for canonical serialization.
func (s *Snapshot) toValue() ir.Object {
	output := s.Output
	if output == nil {
		output = ir.Null{}
	}
	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"operation":     ir.String(s.Operation),
		"output":        output,
	}
}

// RunWithGolden executes a scenario and compares its output against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions too. Test failure
// (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenario.Name,
		Operation:    scenario.Operation,
		Output:       result.Output,
	}
	data, err := ir.MarshalCanonical(snapshot.toValue())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
