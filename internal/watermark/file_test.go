package watermark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *File {
	t.Helper()
	return NewFile(filepath.Join(t.TempDir(), "state.json"))
}

func TestFileLoadMissingIsZero(t *testing.T) {
	s := tempStore(t)

	id, err := s.Load(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

func TestFileSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "chan-1", 1001))
	require.NoError(t, s.Save(ctx, "chan-2", 2002))
	require.NoError(t, s.Save(ctx, "chan-1", 1005)) // overwrite advances

	id, err := s.Load(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1005), id)

	id, err = s.Load(ctx, "chan-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2002), id)
}

func TestFileSurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	ctx := context.Background()

	require.NoError(t, NewFile(path).Save(ctx, "chan-1", 777))

	// a fresh store over the same path sees the saved cursor
	id, err := NewFile(path).Load(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)
}

func TestFileCorruptStateTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o644))

	s := NewFile(path)
	id, err := s.Load(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	// and saving over it works
	require.NoError(t, s.Save(context.Background(), "chan-1", 5))
	id, err = s.Load(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestFileNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, NewFile(path).Save(context.Background(), "chan-1", 1))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
