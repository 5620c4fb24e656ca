package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/carefind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.Equal(t, "", backend.Path())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.Equal(t, dir, backend.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("not a directory"), 0644))

	backend, err := OpenBackend(file, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestOpenBackend_CorruptDirectoryIsMovedAside(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "index")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MANIFEST"), []byte("garbage garbage garbage"), 0644))

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	count, err := backend.CountPrefix(context.Background(), []byte(documentPrefix))
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	var quarantined []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "index.corrupt-") {
			quarantined = append(quarantined, e.Name())
		}
	}
	require.Len(t, quarantined, 1)

	data, err := os.ReadFile(filepath.Join(parent, quarantined[0], "MANIFEST"))
	require.NoError(t, err)
	assert.Equal(t, "garbage garbage garbage", string(data))
}

func TestOpenBackend_ReopenKeepsData(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	err = backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeDocumentKey(42), []byte("{}"))
	})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	count, err := backend.CountPrefix(ctx, []byte(documentPrefix))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction commits", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			return tx.Set([]byte("k1"), []byte("v1"))
		})
		require.NoError(t, err)

		count, err := backend.CountPrefix(ctx, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("failed transaction discards", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			if err := tx.Set([]byte("k2"), []byte("v2")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		count, err := backend.CountPrefix(ctx, []byte("k2"))
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := backend.WithTransaction(cancelled, func(tx *badger.Txn) error {
			return tx.Set([]byte("k3"), []byte("v3"))
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScanPrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	err = backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		for _, k := range []string{"a:2", "a:1", "b:1"} {
			if err := tx.Set([]byte(k), []byte("v-"+k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys, values []string
	err = backend.ScanPrefix(ctx, []byte("a:"), func(key, value []byte) error {
		keys = append(keys, string(key))
		values = append(values, string(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2"}, keys)
	assert.Equal(t, []string{"v-a:1", "v-a:2"}, values)

	err = backend.ScanPrefix(ctx, []byte("a:"), func(key, value []byte) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDocumentKeys(t *testing.T) {
	key := makeDocumentKey(12345)
	assert.True(t, strings.HasPrefix(string(key), documentPrefix))

	id, ok := documentIDFromKey(key)
	assert.True(t, ok)
	assert.EqualValues(t, 12345, id)

	_, ok = documentIDFromKey([]byte("other:1"))
	assert.False(t, ok)
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{name: "identical vectors", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, expected: 1},
		{name: "orthogonal vectors", a: []float32{1, 0, 0}, b: []float32{0, 1, 0}, expected: 0},
		{name: "opposite vectors", a: []float32{1, 0, 0}, b: []float32{-1, 0, 0}, expected: -1},
		{name: "general case", a: []float32{0.6, 0.8}, b: []float32{0.8, 0.6}, expected: 0.96},
		{name: "different lengths - use min", a: []float32{1, 2, 3}, b: []float32{1, 2}, expected: 5},
		{name: "empty vectors", a: []float32{}, b: []float32{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	in := []float32{3, 4}
	out := normalizeVector(in)

	assert.InDelta(t, 0.6, out[0], 0.0001)
	assert.InDelta(t, 0.8, out[1], 0.0001)
	assert.Equal(t, []float32{3, 4}, in, "input must not be modified")

	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
}
