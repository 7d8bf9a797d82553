package persistence

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "atoms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKV_PutGetDelete(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get(SaveKey)
	assert.ErrorIs(t, err, ErrNotFound)
	has, err := db.Has(SaveKey)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.Put(SaveKey, "first"))
	require.NoError(t, db.Put(SaveKey, "second"))

	v, err := db.Get(SaveKey)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	has, err = db.Has(SaveKey)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete(SaveKey))
	require.NoError(t, db.Delete(SaveKey))
	_, err = db.Get(SaveKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshots(t *testing.T) {
	db := openTestDB(t)

	a, err := db.SaveSnapshot("before reset", "AAA")
	require.NoError(t, err)
	b, err := db.SaveSnapshot("", "BBB")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := db.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")
	assert.Empty(t, list[0].Data)

	got, err := db.GetSnapshot(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAA", got.Data)
	assert.Equal(t, "before reset", got.Label)

	_, err = db.GetSnapshot("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = db.ListSnapshots(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExportImport(t *testing.T) {
	src := openTestDB(t)
	require.NoError(t, src.Put(SaveKey, "current"))
	snap, err := src.SaveSnapshot("one", "old")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))

	b, err := ReadBackup(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "current", b.Save)
	require.Len(t, b.Snapshots, 1)
	assert.Equal(t, snap.ID, b.Snapshots[0].ID)

	dst := openTestDB(t)
	n, err := dst.Import(b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = dst.Import(b)
	require.NoError(t, err)
	assert.Zero(t, n, "snapshots are not duplicated")

	v, err := dst.Get(SaveKey)
	require.NoError(t, err)
	assert.Equal(t, "current", v)
	got, err := dst.GetSnapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Data)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
}

func TestReadBackup_Garbage(t *testing.T) {
	_, err := ReadBackup(bytes.NewReader([]byte("not zstd")))
	assert.Error(t, err)
}
