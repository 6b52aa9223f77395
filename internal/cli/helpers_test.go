package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/testutil"
)

func testRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, IdentityField: "urn", LogWriter: io.Discard}
}

// writeValue writes v as canonical JSON into dir/name and returns the path.
func writeValue(t *testing.T, dir, name string, v ir.Value) string {
	t.Helper()
	data, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decodeObject parses command output as a record.
func decodeObject(t *testing.T, out []byte) ir.Object {
	t.Helper()
	v, err := ir.UnmarshalValue(out)
	require.NoError(t, err)
	obj, ok := v.(ir.Object)
	require.True(t, ok, "expected object, got %s", ir.KindOf(v))
	return obj
}

// warehouseTable is a primary warehouse table that embeds its dbt model.
func warehouseTable() ir.Object {
	model := testutil.Dataset("urn:m", "dbt",
		ir.O("description", ir.String("model")),
		testutil.Tags("urn:tag:gold"),
	)
	return testutil.Dataset("urn:t", "snowflake",
		ir.O("description", ir.String("warehouse")),
		testutil.Tags("urn:tag:pii"),
		testutil.Siblings(true, model),
	)
}
