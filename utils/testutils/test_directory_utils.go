package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// WriteTestFile writes contents to a path relative to root, creating intermediate directories. It returns the absolute
// path of the written file.
func WriteTestFile(t *testing.T, root string, relativePath string, contents []byte) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, contents, 0644))

	absolute, err := filepath.Abs(path)
	require.NoError(t, err)
	return absolute
}

// TouchTestFile moves the modification time of path forward by delta, so freshness-based naming observes a change
// without depending on filesystem timestamp resolution.
func TouchTestFile(t *testing.T, path string, delta time.Duration) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	modified := info.ModTime().Add(delta)
	require.NoError(t, os.Chtimes(path, modified, modified))
}

// CreatePackageDirectory creates an empty package directory with a manganis.toml declaring the given name and
// version, followed by any extra declaration text. It returns the absolute directory path.
func CreatePackageDirectory(t *testing.T, root string, name string, version string, declarations string) string {
	t.Helper()

	manifest := "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n\n" + declarations
	path := WriteTestFile(t, root, filepath.Join(name, "manganis.toml"), []byte(manifest))
	return filepath.Dir(path)
}

// ExecuteInDirectory executes the given method with the working directory set to testPath and restores the previous
// working directory afterwards.
func ExecuteInDirectory(t *testing.T, testPath string, method func()) {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(testPath))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	method()
}
