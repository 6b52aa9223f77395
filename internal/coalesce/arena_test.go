package coalesce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siblingmerge/internal/ir"
	tu "github.com/roach88/siblingmerge/internal/testutil"
)

func TestArenaAdd(t *testing.T) {
	a := NewArena("")
	full := tu.Dataset("urn:b", "dbt", tu.Tags("t"))

	require.NoError(t, a.Add(tu.Dataset("urn:a", "hive", tu.Siblings(true, full, tu.Ref("urn:c")))))

	assert.Equal(t, []string{"urn:a", "urn:b"}, a.IDs())
	assert.Equal(t, 2, a.Len())
	got, ok := a.Get("urn:b")
	require.True(t, ok)
	assert.Equal(t, full, got)
	_, ok = a.Get("urn:c")
	assert.False(t, ok, "references are linked, not stored")
	assert.Equal(t, []string{"urn:b", "urn:c"}, a.Siblings("urn:a"))
	assert.Equal(t, []string{"urn:a"}, a.Siblings("urn:c"))
}

func TestArenaAddKeepsStoredRecordOverSiblingCopy(t *testing.T) {
	a := NewArena("")
	stored := tu.Dataset("urn:b", "dbt", ir.O("description", ir.String("stored")))
	require.NoError(t, a.Add(stored))

	require.NoError(t, a.Add(tu.Dataset("urn:a", "hive", tu.Siblings(true, tu.Dataset("urn:b", "dbt")))))

	got, _ := a.Get("urn:b")
	assert.Equal(t, stored, got)
}

func TestArenaAddReferenceKeepsStoredRecord(t *testing.T) {
	a := NewArena("")
	full := tu.Dataset("urn:b", "dbt", ir.O("description", ir.String("stored")))
	require.NoError(t, a.Add(full))
	require.NoError(t, a.Add(tu.Ref("urn:b")))

	got, ok := a.Resolve("urn:b")
	require.True(t, ok)
	assert.Equal(t, full, got)

	require.NoError(t, a.Add(tu.Ref("urn:c")))
	later := tu.Dataset("urn:c", "hive")
	require.NoError(t, a.Add(later))
	got, _ = a.Get("urn:c")
	assert.Equal(t, later, got, "a full record replaces a stored reference")
}

func TestArenaAddRequiresIdentity(t *testing.T) {
	a := NewArena("")
	err := a.Add(ir.Object{"name": ir.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"urn"`)
}

func TestArenaGroup(t *testing.T) {
	a := NewArena("")
	a.Link("urn:a", "urn:b")
	a.Link("urn:b", "urn:c")
	a.Link("urn:c", "urn:a")
	a.Link("urn:c", "urn:d")
	a.Link("urn:x", "urn:y")
	a.Link("urn:a", "urn:a")

	assert.Equal(t, []string{"urn:a", "urn:b", "urn:c", "urn:d"}, a.Group("urn:a"))
	assert.Equal(t, []string{"urn:d", "urn:c", "urn:a", "urn:b"}, a.Group("urn:d"))
	assert.Equal(t, []string{"urn:x", "urn:y"}, a.Group("urn:x"))
	assert.Equal(t, []string{"urn:lonely"}, a.Group("urn:lonely"))
}

func TestArenaAssemble(t *testing.T) {
	a := NewArena("")
	require.NoError(t, a.Add(tu.Dataset("urn:a", "hive", tu.Siblings(true, tu.Ref("urn:b")))))
	require.NoError(t, a.Add(tu.Dataset("urn:b", "dbt", tu.Siblings(false, tu.Ref("urn:c")))))
	require.NoError(t, a.Add(tu.Dataset("urn:c", "looker")))
	require.NoError(t, a.Add(tu.Dataset("urn:d", "hive")))

	got, ok := a.Assemble("urn:a")
	require.True(t, ok)

	sg, ok := ir.SiblingGroupOf(got)
	require.True(t, ok)
	assert.True(t, sg.IsPrimary)
	assert.Equal(t, []string{"urn:b", "urn:c"}, ids(t, sg.Siblings))

	lone, ok := a.Assemble("urn:d")
	require.True(t, ok)
	_, hasGroup := ir.SiblingGroupOf(lone)
	assert.False(t, hasGroup)

	_, ok = a.Assemble("urn:missing")
	assert.False(t, ok)
}

func TestArenaAssembleThenCoalesce(t *testing.T) {
	a := NewArena("")
	require.NoError(t, a.Add(tu.Dataset("urn:a", "hive", tu.Tags("ta"), tu.Siblings(true, tu.Ref("urn:b")))))
	require.NoError(t, a.Add(tu.Dataset("urn:b", "dbt", tu.Tags("tb"), tu.Siblings(false, tu.Ref("urn:a")))))
	co := newTestCoalescer(WithResolver(a))

	rec, ok := a.Assemble("urn:a")
	require.True(t, ok)
	got := co.Coalesce(rec)

	assert.Equal(t, ir.String("urn:a"), got["urn"])
	assert.ElementsMatch(t, []string{"ta", "tb"}, tu.TagURNs(got))
}
