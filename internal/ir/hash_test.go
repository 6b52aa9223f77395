package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHashDeterminism(t *testing.T) {
	a := Object{"urn": String("x"), "tags": Array{String("t1")}}
	b := Object{"tags": Array{String("t1")}, "urn": String("x")}

	ha, err := RecordHash(a)
	require.NoError(t, err)
	hb, err := RecordHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb, "key order must not affect the hash")
}

func TestRecordHashChangesWithContent(t *testing.T) {
	a := MustRecordHash(Object{"urn": String("x")})
	b := MustRecordHash(Object{"urn": String("y")})
	assert.NotEqual(t, a, b)
}

func TestDomainSeparation(t *testing.T) {
	obj := Object{"urn": String("x")}

	recordHash, err := RecordHash(obj)
	require.NoError(t, err)
	valueHash, err := Hash(obj)
	require.NoError(t, err)

	assert.NotEqual(t, recordHash, valueHash)
}

func TestHashHexEncoding(t *testing.T) {
	h := MustRecordHash(Object{})
	assert.Len(t, h, 64)
	_, err := hex.DecodeString(h)
	assert.NoError(t, err)
}

func TestHashRejectsNonFinite(t *testing.T) {
	nan := Float(0)
	nan = nan / nan
	_, err := Hash(Object{"x": nan})
	assert.Error(t, err)
}
