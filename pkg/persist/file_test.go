package persist

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/gmetricd/pkg/store"
)

func TestFileStoreMissingFile(t *testing.T) {
	t.Parallel()
	fs := &FileStore{Path: filepath.Join(t.TempDir(), "missing.json")}
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.NewSnapshot(), snap)
}

func TestFileStoreShortFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"bad`), 0644))
	fs := &FileStore{Path: path}
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.NewSnapshot(), snap)
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"stats": {"a": `), 0644))
	fs := &FileStore{Path: path}
	_, err := fs.Load(context.Background())
	assert.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	fs := &FileStore{Path: filepath.Join(t.TempDir(), "snapshot.json")}
	snap := store.NewSnapshot()
	snap.Counters["requests"] = 3.5
	snap.Timers["latency"] = []float64{1, 2}
	snap.Stats[store.StatKey{Group: "flush", Name: "last_flush"}] = 1234

	require.NoError(t, fs.Save(context.Background(), snap))
	loaded, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestFileStoreSaveError(t *testing.T) {
	t.Parallel()
	fs := &FileStore{Path: filepath.Join(t.TempDir(), "missing-dir", "snapshot.json")}
	assert.Error(t, fs.Save(context.Background(), store.NewSnapshot()))
}
