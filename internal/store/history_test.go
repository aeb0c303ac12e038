package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/zerv"
)

func testDocument(t *testing.T, patch uint64) ir.Document {
	t.Helper()
	schema := zerv.MustSchema(
		[]zerv.Component{zerv.F(zerv.VarMajor), zerv.F(zerv.VarMinor), zerv.F(zerv.VarPatch)},
		[]zerv.Component{zerv.F(zerv.VarPreRelease)},
		[]zerv.Component{zerv.F(zerv.VarBumpedBranch)},
		nil,
	)
	vars := zerv.Vars{
		Major:        zerv.Ptr[uint64](1),
		Minor:        zerv.Ptr[uint64](2),
		Patch:        zerv.Ptr(patch),
		BumpedBranch: zerv.Ptr("main"),
	}
	require.NoError(t, vars.SetCustomJSON(`{"build": {"id": 9}}`))
	return ir.FromZerv(zerv.New(schema, vars))
}

func TestAppendAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 5, 3, 4, 5, 0, time.UTC)

	rec, err := s.Append(ctx, Record{
		Format:    "semver",
		Output:    "1.2.3+main",
		Document:  testDocument(t, 3),
		CreatedAt: created,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, ir.MustFingerprint(testDocument(t, 3)), rec.Fingerprint)
	assert.True(t, created.Equal(rec.CreatedAt))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Output, got.Output)
	assert.Equal(t, "semver", got.Format)
	assert.Equal(t, rec.Fingerprint, ir.MustFingerprint(got.Document))

	z, err := got.Document.ToZerv()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), *z.Vars.Patch)
	v, ok := z.Vars.CustomValue("build.id")
	assert.True(t, ok)
	assert.Equal(t, "9", v)
}

func TestAppendIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	first, err := s.Append(ctx, Record{ID: id, Format: "semver", Output: "1.2.3", Document: testDocument(t, 3)})
	require.NoError(t, err)
	second, err := s.Append(ctx, Record{ID: id, Format: "pep440", Output: "other", Document: testDocument(t, 4)})
	require.NoError(t, err)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Seq, second.Seq)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAppendFingerprintMismatch(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Append(context.Background(), Record{
		Fingerprint: "deadbeef",
		Format:      "semver",
		Output:      "1.2.3",
		Document:    testDocument(t, 3),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestListAndLatest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	empty, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for patch := uint64(1); patch <= 3; patch++ {
		_, err := s.Append(ctx, Record{Format: "semver", Output: fmt.Sprintf("1.2.%d", patch), Document: testDocument(t, patch)})
		require.NoError(t, err)
	}

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", latest.Output)
	assert.Equal(t, int64(3), latest.Seq)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "1.2.3", two[0].Output)
	assert.Equal(t, "1.2.2", two[1].Output)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, format := range []string{"semver", "pep440"} {
		_, err := s.Append(ctx, Record{Format: format, Output: "1.2.3", Document: testDocument(t, 3)})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, Record{Format: "semver", Output: "1.2.4", Document: testDocument(t, 4)})
	require.NoError(t, err)

	got, err := s.ByFingerprint(ctx, ir.MustFingerprint(testDocument(t, 3)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "semver", got[0].Format)
	assert.Equal(t, "pep440", got[1].Format)

	none, err := s.ByFingerprint(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
