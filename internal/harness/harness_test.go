package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/siblingmerge/internal/ir"
)

func TestRun_Coalesce(t *testing.T) {
	scenario := &Scenario{
		Name:      "inline",
		Operation: OpCoalesce,
		Input: map[string]any{
			"urn":         "urn:a",
			"description": "primary",
			"siblings": map[string]any{
				"isPrimary": true,
				"siblings": []any{
					map[string]any{"urn": "urn:b", "description": "secondary", "owner": "team-b"},
				},
			},
		},
		Assertions: []Assertion{
			{Type: AssertEquals, Path: "urn", Value: "urn:a"},
			{Type: AssertEquals, Path: "description", Value: "primary"},
			{Type: AssertEquals, Path: "owner", Value: "team-b"},
			{Type: AssertInputUnchanged},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestRun_FailingAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:      "inline",
		Operation: OpClean,
		Input:     map[string]any{"urn": "urn:a", "note": ""},
		Assertions: []Assertion{
			{Type: AssertEquals, Path: "note", Value: ""},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "Actual: <missing>")
}

func TestRun_StoreResolvesReferences(t *testing.T) {
	scenario := &Scenario{
		Name:      "inline",
		Operation: OpCoalesce,
		Store: []any{
			map[string]any{"urn": "urn:t", "description": "from store", "siblings": map[string]any{"isPrimary": true}},
		},
		Input: map[string]any{
			"urn": "urn:m",
			"siblings": map[string]any{
				"siblings": []any{map[string]any{"urn": "urn:t"}},
			},
		},
		Assertions: []Assertion{
			{Type: AssertEquals, Path: "description", Value: "from store"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestRun_StoreRecordWithoutIdentity(t *testing.T) {
	scenario := &Scenario{
		Name:       "inline",
		Operation:  OpCoalesce,
		Store:      []any{map[string]any{"name": "anonymous"}},
		Input:      map[string]any{"urn": "urn:m"},
		Assertions: []Assertion{{Type: AssertInputUnchanged}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store[0]")
}

func TestRun_StrategyOverrides(t *testing.T) {
	var overrides yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("remove: [tags]\n"), &overrides))

	scenario := &Scenario{
		Name:       "inline",
		Operation:  OpCoalesce,
		Strategies: *overrides.Content[0],
		Input: map[string]any{
			"urn":  "urn:a",
			"tags": []any{map[string]any{"tag": map[string]any{"urn": "urn:li:tag:x"}}},
			"siblings": map[string]any{
				"isPrimary": true,
				"siblings": []any{
					map[string]any{"urn": "urn:b", "tags": []any{map[string]any{"tag": map[string]any{"urn": "urn:li:tag:y"}}}},
				},
			},
		},
		// Without the union strategy, tags combine by index: element 0 merges.
		Assertions: []Assertion{
			{Type: AssertLength, Path: "tags", Count: 1},
			{Type: AssertIdentities, Path: "tags", Key: "tag.urn", IDs: []string{"urn:li:tag:x"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestRun_BadStrategyOverrides(t *testing.T) {
	var overrides yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("strategies:\n  tags: { kind: sideways }\n"), &overrides))

	scenario := &Scenario{
		Name:       "inline",
		Operation:  OpCoalesce,
		Strategies: *overrides.Content[0],
		Input:      map[string]any{"urn": "urn:a"},
		Assertions: []Assertion{{Type: AssertInputUnchanged}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategies")
}

func TestRun_CombineRejectsNonRecords(t *testing.T) {
	scenario := &Scenario{
		Name:       "inline",
		Operation:  OpCombine,
		Input:      []any{"not a record"},
		Assertions: []Assertion{{Type: AssertInputUnchanged}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input[0] must be a record")
}

func TestRun_OutputIsValue(t *testing.T) {
	scenario := &Scenario{
		Name:       "inline",
		Operation:  OpCombine,
		Input:      []any{map[string]any{"urn": "urn:a"}},
		Assertions: []Assertion{{Type: AssertLength, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, ir.Array{ir.Object{"entity": ir.Object{"urn": ir.String("urn:a")}}}, result.Output)
}
