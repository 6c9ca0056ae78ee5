package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.txt")
	err := WriteFileAtomic(target, 0600, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// A failed write leaves the previous contents and no temporary file behind
	err = WriteFileAtomic(target, 0600, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("interrupted")
	})
	assert.Error(t, err)

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopyDirectory(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(source, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "b.txt"), []byte("b"), 0644))

	flat := filepath.Join(t.TempDir(), "flat")
	require.NoError(t, CopyDirectory(source, flat, false))
	assert.FileExists(t, filepath.Join(flat, "a.txt"))
	assert.NoDirExists(t, filepath.Join(flat, "sub"))

	deep := filepath.Join(t.TempDir(), "deep")
	require.NoError(t, CopyDirectory(source, deep, true))
	data, err := os.ReadFile(filepath.Join(deep, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	// A file is not a directory
	assert.Error(t, CopyDirectory(filepath.Join(source, "a.txt"), filepath.Join(t.TempDir(), "x"), true))
}

func TestMakeAndDeleteDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, MakeDirectory(dir))
	require.NoError(t, MakeDirectory(dir))
	assert.DirExists(t, dir)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, MakeDirectory(file))
	assert.Error(t, DeleteDirectory(file))

	require.NoError(t, DeleteDirectory(dir))
	assert.NoDirExists(t, dir)
	assert.NoError(t, DeleteDirectory(dir))
}

func TestMoveDirectoryContents(t *testing.T) {
	t.Parallel()

	// A missing target is replaced by the source as a whole
	source := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.MkdirAll(filepath.Join(source, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("new"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "b.txt"), []byte("b"), 0644))
	target := filepath.Join(t.TempDir(), "target")
	require.NoError(t, MoveDirectoryContents(source, target))
	assert.NoDirExists(t, source)
	assert.FileExists(t, filepath.Join(target, "sub", "b.txt"))

	// An existing target keeps unrelated entries and has same-named ones replaced
	source = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(source, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("newer"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "c.txt"), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep.txt"), []byte("keep"), 0644))
	require.NoError(t, MoveDirectoryContents(source, target))

	data, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "newer", string(data))
	assert.FileExists(t, filepath.Join(target, "keep.txt"))
	assert.FileExists(t, filepath.Join(target, "sub", "c.txt"))
	assert.NoFileExists(t, filepath.Join(target, "sub", "b.txt"))
}
