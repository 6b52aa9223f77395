package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/roach88/siblingmerge/internal/testutil"
)

func TestGetRecord_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRecord(context.Background(), "urn:missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetRecord() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListRecords_Empty(t *testing.T) {
	s := createTestStore(t)

	records, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSiblingIDs_Empty(t *testing.T) {
	s := createTestStore(t)

	ids, err := s.SiblingIDs(context.Background(), "urn:a")
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)
}

func TestLoadArena_TransitiveGroup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.PutRecord(ctx, tu.Dataset("urn:a", "hive", tu.Siblings(true, tu.Ref("urn:b"))))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, tu.Dataset("urn:b", "dbt", tu.Siblings(false, tu.Ref("urn:c"))))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, tu.Dataset("urn:c", "looker"))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, tu.Dataset("urn:unrelated", "hive"))
	require.NoError(t, err)

	arena, err := s.LoadArena(ctx, "urn:a")
	require.NoError(t, err)

	assert.Equal(t, 3, arena.Len())
	assert.Equal(t, []string{"urn:a", "urn:b", "urn:c"}, arena.Group("urn:a"))
	_, ok := arena.Get("urn:unrelated")
	assert.False(t, ok)
}

func TestLoadArena_MissingRecordIsLinkedOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutRecord(ctx, tu.Dataset("urn:a", "hive", tu.Siblings(true, tu.Ref("urn:ghost"))))
	require.NoError(t, err)

	arena, err := s.LoadArena(ctx, "urn:a", "urn:a")
	require.NoError(t, err)

	assert.Equal(t, 1, arena.Len())
	assert.Equal(t, []string{"urn:ghost"}, arena.Siblings("urn:a"))
}
