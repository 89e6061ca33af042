package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/moritama/project-board-api/internal/constants"
)

func TestDiskStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	path, err := store.Save("design doc.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, constants.AttachmentURLPrefix))
	require.True(t, strings.HasSuffix(path, "design_doc.pdf"))

	name := strings.TrimPrefix(path, constants.AttachmentURLPrefix)
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "pdf bytes", string(content))

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(filepath.Join(dir, name))
	require.True(t, os.IsNotExist(err))
}

func TestDiskStore_RemoveIdempotent(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	// Removing a path that was never stored is a success.
	require.NoError(t, store.Remove(constants.AttachmentURLPrefix+"never-there.txt"))
}

func TestDiskStore_RemoveRejectsForeignPaths(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Remove("/etc/passwd"))
	require.Error(t, store.Remove(constants.AttachmentURLPrefix+"../escape.txt"))
}

func TestDiskStore_UniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save("same.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Save("same.txt", strings.NewReader("two"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestJanitor_RemovesScheduledPaths(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	path, err := store.Save("temp.txt", strings.NewReader("bytes"))
	require.NoError(t, err)

	janitor := NewJanitor(store)
	janitor.Start()
	janitor.Schedule(path)

	// Stop drains the queue before returning.
	janitor.Stop()

	name := strings.TrimPrefix(path, constants.AttachmentURLPrefix)
	_, err = os.Stat(filepath.Join(dir, name))
	require.True(t, os.IsNotExist(err))
}
