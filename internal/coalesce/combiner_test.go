package coalesce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siblingmerge/internal/ir"
	tu "github.com/roach88/siblingmerge/internal/testutil"
)

// triangle returns A (primary) listing B and C, where B and C each list A.
// B is flagged as not existing.
func triangle() (a, b, c ir.Object) {
	b = tu.Dataset("urn:b", "dbt", tu.Tags("tb"), ir.O("exists", ir.Bool(false)), tu.Siblings(false, tu.Ref("urn:a")))
	c = tu.Dataset("urn:c", "looker", tu.Tags("tc"), tu.Siblings(false, tu.Ref("urn:a")))
	a = tu.Dataset("urn:a", "snowflake", tu.Tags("ta"), ir.O("exists", ir.Bool(true)), tu.Siblings(true, b, c))
	return a, b, c
}

func TestCoalesceManyDedupsSiblingGroup(t *testing.T) {
	co := newTestCoalescer()
	a, b, c := triangle()

	got := CoalesceMany(co, []Result[string]{
		{Entity: a, Sidecar: "match-a"},
		{Entity: b, Sidecar: "match-b"},
		{Entity: c, Sidecar: "match-c"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "match-a", got[0].Sidecar)
	assert.Equal(t, ir.String("urn:a"), got[0].Entity["urn"])
	assert.ElementsMatch(t, []string{"ta", "tb", "tc"}, tu.TagURNs(got[0].Entity))
}

func TestCoalesceManyFirstRowClaimsItsListedSiblings(t *testing.T) {
	co := newTestCoalescer()
	a, b, c := triangle()

	got := CoalesceMany(co, []Result[int]{{Entity: b, Sidecar: 1}, {Entity: a, Sidecar: 2}, {Entity: c, Sidecar: 3}})

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Sidecar)
	assert.Equal(t, 3, got[1].Sidecar)
}

func TestCombineMatchedEntities(t *testing.T) {
	co := newTestCoalescer()
	a, _, c := triangle()

	t.Run("primary leads and non-existing entries are dropped", func(t *testing.T) {
		combined, skipped := co.NewCombiner().Combine(a)
		require.False(t, skipped)
		assert.Equal(t, []string{"urn:a", "urn:c"}, ids(t, combined.MatchedEntities))
		assert.Equal(t, ir.Null{}, combined.MatchedEntities[0]["siblings"])
		assert.Equal(t, ir.Null{}, combined.MatchedEntities[0]["siblingPlatforms"])
	})

	t.Run("secondary trails its siblings", func(t *testing.T) {
		combined, skipped := co.NewCombiner().Combine(c)
		require.False(t, skipped)
		assert.Equal(t, []string{"urn:a", "urn:c"}, ids(t, combined.MatchedEntities))
		assert.Equal(t, ir.Null{}, combined.MatchedEntities[1]["siblings"])
	})
}

func TestCombineRecordsVisitedIdentities(t *testing.T) {
	co := newTestCoalescer()
	a, b, c := triangle()
	cb := co.NewCombiner()

	_, skipped := cb.Combine(a)
	require.False(t, skipped)
	assert.Equal(t, 3, cb.Visited())

	for _, rec := range []ir.Object{a, b, c} {
		combined, skipped := cb.Combine(rec)
		assert.True(t, skipped)
		assert.Nil(t, combined.Entity)
	}
}

func TestCombineWithoutSiblings(t *testing.T) {
	co := newTestCoalescer()
	d := tu.Dataset("urn:d", "hive")

	got := CoalesceMany(co, []Result[struct{}]{{Entity: d}, {Entity: d}})

	require.Len(t, got, 2)
	for _, row := range got {
		assert.Equal(t, d, row.Entity)
		assert.Nil(t, row.MatchedEntities)
	}
}

func TestCoalesceManyEmpty(t *testing.T) {
	co := newTestCoalescer()
	assert.Empty(t, CoalesceMany[string](co, nil))
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet()
	assert.False(t, v.Seen("urn:a"))

	v.Record("urn:a", "", "urn:a")

	assert.True(t, v.Seen("urn:a"))
	assert.False(t, v.Seen(""))
	assert.Equal(t, 1, v.Len())
}
