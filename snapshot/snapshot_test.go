package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *simfs.NodeImage {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &simfs.NodeImage{
		ID: "root", Type: simfs.DirectoryType, Name: "/", CreatedAt: ts, UpdatedAt: ts,
		Children: []*simfs.NodeImage{
			{
				ID: "d1", Type: simfs.DirectoryType, Name: "docs", CreatedAt: ts, UpdatedAt: ts,
				Children: []*simfs.NodeImage{
					{ID: "f1", Type: simfs.FileType, Name: "notes.txt", Extension: "txt", Content: "hello <world> & co", CreatedAt: ts, UpdatedAt: ts},
				},
			},
			{ID: "f2", Type: simfs.FileType, Name: "Makefile", CreatedAt: ts, UpdatedAt: ts},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	for _, c := range []string{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(c, func(t *testing.T) {
			t.Parallel()

			data, err := Encode(sampleTree(), c, time.Now())
			require.NoError(t, err)

			switch c {
			case CompressionZstd:
				assert.True(t, bytes.HasPrefix(data, zstdMagic))
			case CompressionGzip:
				assert.True(t, bytes.HasPrefix(data, gzipMagic))
			default:
				assert.True(t, bytes.HasPrefix(data, []byte("{")))
			}

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, sampleTree(), got)
			assert.Equal(t, 4, got.Count())
		})
	}
}

func TestEncode_UnknownCompression(t *testing.T) {
	t.Parallel()

	_, err := Encode(sampleTree(), "lz4", time.Now())
	assert.Error(t, err)
}

func TestDecode_Corrupt(t *testing.T) {
	t.Parallel()

	good, err := Encode(sampleTree(), CompressionNone, time.Now())
	require.NoError(t, err)
	require.Contains(t, string(good), "Makefile")

	tests := map[string][]byte{
		"garbage":   []byte("not json at all"),
		"tampered":  bytes.Replace(good, []byte("Makefile"), []byte("Rakefile"), 1),
		"no root":   []byte(`{"version":1,"checksum":"00"}`),
		"version":   bytes.Replace(good, []byte(`"version":1`), []byte(`"version":9`), 1),
		"bad gzip":  append(append([]byte{}, gzipMagic...), 0, 1, 2),
		"truncated": good[:len(good)/2],
	}
	for name, data := range tests {
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "state", "filesystem.dat")
	store, err := NewFileStore(path, CompressionZstd)
	require.NoError(t, err)

	_, err = store.Load()
	require.ErrorIs(t, err, simfs.ErrNoSnapshot)

	require.NoError(t, store.Save(sampleTree()))

	tree := sampleTree()
	tree.Children = tree.Children[:1]
	require.NoError(t, store.Save(tree))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tree, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "filesystem.dat", entries[0].Name())
}

func TestFileStore_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filesystem.dat")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	store, err := NewFileStore(path, CompressionNone)
	require.NoError(t, err)
	_, err = store.Load()
	assert.ErrorIs(t, err, simfs.ErrNoSnapshot)
}

func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filesystem.dat")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	store, err := NewFileStore(path, CompressionNone)
	require.NoError(t, err)
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, simfs.ErrNoSnapshot)
}

func TestFileStore_ReadsAnyCompression(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "filesystem.dat")
	gzStore, err := NewFileStore(path, CompressionGzip)
	require.NoError(t, err)
	require.NoError(t, gzStore.Save(sampleTree()))

	plain, err := NewFileStore(path, CompressionNone)
	require.NoError(t, err)
	got, err := plain.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), got)
}

func TestNewFileStore_BadCompression(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("x", "brotli")
	assert.Error(t, err)
}

func TestFileStore_SaveFailure(t *testing.T) {
	t.Parallel()

	// parent of the snapshot path is a regular file
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store, err := NewFileStore(filepath.Join(blocker, "filesystem.dat"), CompressionNone)
	require.NoError(t, err)
	assert.Error(t, store.Save(sampleTree()))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.Load()
	require.ErrorIs(t, err, simfs.ErrNoSnapshot)

	tree := sampleTree()
	require.NoError(t, store.Save(tree))
	tree.Children = nil // later edits do not leak into the stored image

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), got)
	assert.Equal(t, 1, store.Saves())
}
