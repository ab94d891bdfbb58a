package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_GetPut(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "nested", "graph.json")
	testContent := `{"__kind__":"Output"}`

	storage := NewLocalStorage()
	ctx := context.Background()

	uri := "file://" + filepath.ToSlash(testFile)
	require.NoError(t, storage.Put(ctx, uri, strings.NewReader(testContent)))
	assert.FileExists(t, testFile)

	reader, err := storage.Get(ctx, uri)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, testContent, string(content))

	entries, err := os.ReadDir(filepath.Dir(testFile))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are renamed away")
}

func TestLocalStorage_BarePath(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "job.yaml")
	storage := NewLocalStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, testFile, strings.NewReader("inputs: []")))
	exists, err := storage.Exists(ctx, testFile)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "graph.json")
	storage := NewLocalStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, testFile, strings.NewReader("first version")))
	require.NoError(t, storage.Put(ctx, testFile, strings.NewReader("second")))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	_, err := NewLocalStorage().Get(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorage_WrongScheme(t *testing.T) {
	_, err := NewLocalStorage().Get(context.Background(), "s3://bucket/key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only supports file://")
}

func TestLocalStorage_Exists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "existing.txt")
	require.NoError(t, os.WriteFile(existingFile, []byte("test"), 0644))

	storage := NewLocalStorage()
	ctx := context.Background()

	exists, err := storage.Exists(ctx, "file://"+filepath.ToSlash(existingFile))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.Exists(ctx, filepath.Join(tmpDir, "nonexistent.txt"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "delete-me.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("test"), 0644))

	storage := NewLocalStorage()
	ctx := context.Background()

	require.NoError(t, storage.Delete(ctx, testFile))
	_, err := os.Stat(testFile)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.Delete(ctx, testFile), "deleting twice is fine")
}
