package strategy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCUEDir(t *testing.T) {
	table, err := Load("testdata/cue")
	require.NoError(t, err)

	assert.Equal(t, UnionBy("term.urn"), table.Lookup("glossaryTerms"))
	assert.Equal(t, PrimaryWins(), table.Lookup("lineage"))
	assert.Equal(t, KindDefault, table.Lookup("forms").Kind, "remove drops a built-in")
	assert.Equal(t, UnionBy("tag.urn"), table.Lookup("tags"), "built-ins survive")
}

func TestLoadYAMLFile(t *testing.T) {
	table, err := Load("testdata/overrides.yaml")
	require.NoError(t, err)

	assert.Equal(t, UnionBy("term.urn"), table.Lookup("glossaryTerms"))
	assert.Equal(t, UnionBy("urn"), table.Lookup("incidents"))
	assert.Equal(t, KindDefault, table.Lookup("customProperties").Kind)
}

func TestLoadCUEFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
strategies: {
	"dataProducts": {kind: "precedence_side"}
}
`), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, PrecedenceSide(), table.Lookup("dataProducts"))
}

func TestApplyCUEMissingKind(t *testing.T) {
	err := ApplyCUESource([]byte(`strategies: tags: {key: "tag.urn"}`), "bad.cue", NewTable())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "tags", cfgErr.Field)
	assert.Contains(t, cfgErr.Message, "kind is required")
}

func TestApplyCUEUnknownKind(t *testing.T) {
	err := ApplyCUESource([]byte(`strategies: tags: {kind: "overwrite"}`), "bad.cue", NewTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy kind "overwrite"`)
}

func TestApplyCUESyntaxError(t *testing.T) {
	err := ApplyCUESource([]byte(`strategies: {`), "broken.cue", NewTable())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, cfgErr.Pos.IsValid())
	assert.Contains(t, cfgErr.Error(), "broken.cue")
}

func TestApplyYAMLMissingKey(t *testing.T) {
	err := ApplyYAML([]byte(`
strategies:
  tags:
    kind: union_by_key
`), NewTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a key path")
}

func TestApplyFailureLeavesTableUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Table) error
	}{
		{
			name: "cue",
			apply: func(table *Table) error {
				return ApplyCUESource([]byte(`
remove: ["forms"]
strategies: {
	dataProducts: {kind: "precedence_side"}
	tags: {kind: "overwrite"}
}
`), "partial.cue", table)
			},
		},
		{
			name: "yaml",
			apply: func(table *Table) error {
				return ApplyYAML([]byte(`
remove: [forms]
strategies:
  dataProducts:
    kind: precedence_side
  tags:
    kind: overwrite
`), table)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Default()
			before := table.Entries()

			require.Error(t, tt.apply(table))

			assert.Equal(t, before, table.Entries())
			assert.Equal(t, PrimaryWins(), table.Lookup("forms"))
			assert.Equal(t, Strategy{Kind: KindDefault}, table.Lookup("dataProducts"))
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
