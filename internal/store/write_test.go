package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siblingmerge/internal/ir"
	tu "github.com/roach88/siblingmerge/internal/testutil"
)

func TestPutRecord_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := tu.Dataset("urn:a", "hive", ir.O("rows", ir.Int(9007199254740993)))

	written, err := s.PutRecord(ctx, rec)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := s.GetRecord(ctx, "urn:a")
	require.NoError(t, err)
	assert.Equal(t, "urn:a", got.ID)
	assert.Equal(t, "DATASET", got.Type)
	assert.Equal(t, rec, got.Body)
	assert.Equal(t, ir.MustRecordHash(rec), got.Hash)
	assert.Equal(t, int64(1), got.Seq)
}

func TestPutRecord_UnchangedIsSkipped(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := tu.Dataset("urn:a", "hive")

	_, err := s.PutRecord(ctx, rec)
	require.NoError(t, err)
	written, err := s.PutRecord(ctx, rec.Clone())
	require.NoError(t, err)
	assert.False(t, written)

	got, err := s.GetRecord(ctx, "urn:a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq, "unchanged record keeps its seq")
}

func TestPutRecord_ChangedIsRewritten(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutRecord(ctx, tu.Dataset("urn:a", "hive"))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, tu.Dataset("urn:b", "hive"))
	require.NoError(t, err)
	written, err := s.PutRecord(ctx, tu.Dataset("urn:a", "dbt"))
	require.NoError(t, err)
	assert.True(t, written)

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "urn:b", records[0].ID)
	assert.Equal(t, "urn:a", records[1].ID)
	name, _ := ir.LookupString(records[1].Body, "platform.name")
	assert.Equal(t, "dbt", name)
}

func TestPutRecord_MissingIdentity(t *testing.T) {
	s := createTestStore(t)

	_, err := s.PutRecord(context.Background(), ir.Object{"name": ir.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestPutRecord_LinksSiblingsBothWays(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	full := tu.Dataset("urn:b", "dbt", tu.Tags("t"))

	_, err := s.PutRecord(ctx, tu.Dataset("urn:a", "hive", tu.Siblings(true, full, tu.Ref("urn:c"))))
	require.NoError(t, err)

	sibs, err := s.SiblingIDs(ctx, "urn:a")
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:b", "urn:c"}, sibs)

	back, err := s.SiblingIDs(ctx, "urn:c")
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:a"}, back)

	stored, err := s.GetRecord(ctx, "urn:b")
	require.NoError(t, err)
	assert.Equal(t, full, stored.Body)

	_, err = s.GetRecord(ctx, "urn:c")
	assert.Error(t, err, "references are linked, not stored")
}

func TestPutRecord_EmbeddedSiblingDoesNotOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	stored := tu.Dataset("urn:b", "dbt", ir.O("description", ir.String("stored")))

	_, err := s.PutRecord(ctx, stored)
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, tu.Dataset("urn:a", "hive", tu.Siblings(true, tu.Dataset("urn:b", "dbt"))))
	require.NoError(t, err)

	got, err := s.GetRecord(ctx, "urn:b")
	require.NoError(t, err)
	assert.Equal(t, stored, got.Body)
}
