package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siblingmerge/internal/ir"
	tu "github.com/roach88/siblingmerge/internal/testutil"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("run-1")))
	ctx := context.Background()
	entity := tu.Dataset("urn:a", "hive", tu.Tags("t1", "t2"))

	written, err := s.WriteRun(ctx, Run{
		StrategiesHash: "abc",
		Results: []RunResult{
			{EntityID: "urn:a", Entity: entity, Matched: []ir.Object{tu.Ref("urn:a"), tu.Ref("urn:b")}},
			{EntityID: "urn:d", Entity: tu.Dataset("urn:d", "hive")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", written.ID)
	assert.Equal(t, int64(1), written.Seq)

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.StrategiesHash)
	require.Len(t, got.Results, 2)
	assert.Equal(t, entity, got.Results[0].Entity)
	assert.Equal(t, []ir.Object{tu.Ref("urn:a"), tu.Ref("urn:b")}, got.Results[0].Matched)
	assert.Equal(t, "urn:d", got.Results[1].EntityID)
	assert.Nil(t, got.Results[1].Matched)
}

func TestWriteRun_ExplicitID(t *testing.T) {
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator()))

	run, err := s.WriteRun(context.Background(), Run{ID: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", run.ID)
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, Run{ID: "dup"})
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, Run{ID: "dup"})
	assert.Error(t, err)
}

func TestWriteRun_SeqSharesRecordClock(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutRecord(ctx, tu.Dataset("urn:a", "hive"))
	require.NoError(t, err)
	run, err := s.WriteRun(ctx, Run{ID: "r"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), run.Seq)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() error = %v, want sql.ErrNoRows", err)
	}
}
