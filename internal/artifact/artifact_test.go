package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matryoshka/internal/artifact"
	"matryoshka/internal/schema"
)

func TestSnapshotRoundtrip(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("test.dsl", `
type Address {
  number Int
}

model User {
  addresses Address[]
  @@unique([addresses.number])
}
`)
	require.True(t, res.OK())

	snap := artifact.New("01J0000000000000000000TEST", res)
	path := filepath.Join(t.TempDir(), "schema.snapshot")
	require.NoError(t, artifact.Write(path, snap))

	got, err := artifact.Read(path)
	require.NoError(t, err)

	assert.Equal(t, snap.RunID, got.RunID)
	assert.True(t, got.OK)
	require.Len(t, got.Descriptors, 1)
	assert.Equal(t, schema.Unique, got.Descriptors[0].Kind)
	assert.Equal(t, "User", got.Descriptors[0].Model)
	require.Len(t, got.Descriptors[0].Paths, 1)
	assert.Equal(t, "addresses.number", got.Descriptors[0].Paths[0].Raw)
	assert.True(t, got.Descriptors[0].Paths[0].ArrayTraversed)
}

func TestSnapshotKeepsDiagnostics(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("test.dsl", `
model User {
  addresses Address[]
}
`)
	require.False(t, res.OK())

	snap := artifact.New("run", res)
	path := filepath.Join(t.TempDir(), "schema.snapshot")
	require.NoError(t, artifact.Write(path, snap))

	got, err := artifact.Read(path)
	require.NoError(t, err)
	assert.False(t, got.OK)
	assert.Empty(t, got.Descriptors)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "unknown_type", got.Diagnostics[0].Code)
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("test.dsl", `model User { id String }`)
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.snapshot")
	require.NoError(t, artifact.Write(path, artifact.New("run", res)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "schema.snapshot", entries[0].Name())
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := artifact.Read(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
