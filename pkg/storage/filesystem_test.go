package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	path, err := store.Save("week 1 notes.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000000-week_1_notes.pdf", path)

	file, err := store.Open(path)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "content", string(body))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, strings.TrimPrefix(path, PublicPrefix), "/")

	_, err = store.Open("/uploads/../../etc/passwd")
	require.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete("/uploads/missing.txt"))
}
