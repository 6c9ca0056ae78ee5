package cmd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/project"
	"github.com/crytic/manganis/utils/testutils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns what it wrote to stdout. Flags are reset first since
// the command tree is shared by every test.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// resetFlags restores the default value of every flag of cmd and its sub-commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if sliceValue, ok := flag.Value.(pflag.SliceValue); ok {
			_ = sliceValue.Replace(nil)
		} else {
			_ = flag.Value.Set(flag.DefValue)
		}
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	t.Setenv(config.ConfigPathEnv, path)
	t.Setenv(config.ServeLocationEnv, "")
	t.Setenv(config.BasePathEnv, "")

	out, err := executeCommand(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	_, err = executeCommand(t, "config", "set", "assets_serve_location", "/static")
	require.NoError(t, err)
	_, err = executeCommand(t, "config", "set", "base_path", "docs")
	require.NoError(t, err)

	out, err = executeCommand(t, "config", "show", "--target-os", "linux")
	require.NoError(t, err)
	assert.Contains(t, out, `serve_root = "/docs/static/"`)

	_, err = executeCommand(t, "config", "reset", "--target-os", "js")
	require.NoError(t, err)
	out, err = executeCommand(t, "config", "--target-os", "js")
	require.NoError(t, err)
	assert.Contains(t, out, `assets_serve_location = "/"`)

	_, err = executeCommand(t, "config", "set", "colour", "blue")
	assert.Error(t, err)
	_, err = executeCommand(t, "config", "frobnicate")
	assert.Error(t, err)
}

func TestDeclareCommand(t *testing.T) {
	t.Setenv(config.ConfigPathEnv, filepath.Join(t.TempDir(), config.ConfigFileName))
	t.Setenv(config.ServeLocationEnv, "")
	t.Setenv(config.BasePathEnv, "")
	t.Setenv(config.SupportEnv, "")
	t.Setenv(config.PrimaryDirEnv, "")
	t.Setenv("GOOS", "linux")

	declarations := "[[assets]]\nname = \"Style\"\nkind = \"css\"\nsource = \"style.css\"\n"
	workspace := t.TempDir()
	packageDir := testutils.CreatePackageDirectory(t, workspace, "app", "0.1.0", declarations)
	testutils.WriteTestFile(t, packageDir, "style.css", []byte("body { color: red; }"))
	cacheDir := t.TempDir()

	// Without support the package refers to its own file
	testutils.ExecuteInDirectory(t, packageDir, func() {
		_, err := executeCommand(t, "declare", "--cache-dir", cacheDir, "--no-remote-cache")
		require.NoError(t, err)
	})
	generated, err := os.ReadFile(filepath.Join(packageDir, "manganis_assets.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package app")
	assert.Contains(t, string(generated), `Style = "style.css"`)

	// With support the served location is under the serve root
	testutils.ExecuteInDirectory(t, packageDir, func() {
		_, err := executeCommand(t, "declare", "--cache-dir", cacheDir, "--no-remote-cache", "--support", "--embed")
		require.NoError(t, err)
	})
	generated, err = os.ReadFile(filepath.Join(packageDir, "manganis_assets.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), `Style = "./assets/style`)
	assert.Contains(t, string(generated), `import "C"`)
	assert.FileExists(t, filepath.Join(packageDir, "manganis_assets.c"))

	// Collection needs a lockfile
	_, err = executeCommand(t, "collect", packageDir, "--cache-dir", cacheDir, "--output", "-")
	assert.Error(t, err)

	// The registry written by the declaration feeds the collect command
	lock := &project.Lockfile{Version: 1, Packages: []project.LockedPackage{{Name: "app", Version: "0.1.0"}}}
	require.NoError(t, project.WriteLockfile(filepath.Join(workspace, project.LockFileName), lock))
	output := filepath.Join(t.TempDir(), DefaultManifestFilename)
	_, err = executeCommand(t, "collect", packageDir, "--cache-dir", cacheDir, "--output", output)
	require.NoError(t, err)

	manifest, err := bundle.ReadManifest(output)
	require.NoError(t, err)
	require.Len(t, manifest.Packages, 1)
	assert.Equal(t, "app-0.1.0", manifest.Packages[0].Package)
	assert.Len(t, manifest.Files(), 1)
}

func TestBundleCommand(t *testing.T) {
	sourceDir := t.TempDir()
	testutils.WriteTestFile(t, sourceDir, "style.css", []byte("body {  color: red;  }"))
	file, err := assets.NewResolver(sourceDir, nil).NewFileAsset(context.Background(), "style.css", nil, false)
	require.NoError(t, err)

	manifestPath := filepath.Join(t.TempDir(), DefaultManifestFilename)
	require.NoError(t, bundle.WriteManifest(manifestPath, assets.AssetManifest{Packages: []assets.PackageAssets{
		{Package: "app-0.1.0", Assets: []assets.AssetType{assets.NewFile(file)}},
	}}))

	outputDir := filepath.Join(t.TempDir(), "public")
	_, err = executeCommand(t, "bundle", manifestPath,
		"--output-dir", outputDir, "--tailwind=false", "--gzip", "--cache-dir", t.TempDir(), "--no-remote-cache")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outputDir, file.Location.UniqueName))
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(data))
	assert.FileExists(t, filepath.Join(outputDir, file.Location.UniqueName+".gz"))

	// A missing manifest is a collection error
	_, err = executeCommand(t, "bundle", filepath.Join(t.TempDir(), "missing.json"), "--output-dir", outputDir)
	_, code := exitcodes.GetInnerErrorAndExitCode(err)
	assert.Equal(t, exitcodes.ExitCodeCollectionError, code)
}

func TestScrapeCommand(t *testing.T) {
	// A file that cannot carry an asset section contributes nothing
	path := testutils.WriteTestFile(t, t.TempDir(), "notes.txt", []byte("plain text"))

	out, err := executeCommand(t, "scrape", path, "--output", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"packages": []}`, out)

	_, err = executeCommand(t, "scrape")
	assert.Error(t, err)
}

func TestLinkCommand(t *testing.T) {
	trueBin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true is not available")
	}
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false is not available")
	}

	dir := t.TempDir()
	output := filepath.Join(dir, "linked.json")
	_, err = executeCommand(t, "link", "--linker", trueBin, "--output", output, "--", "-o", "app", "manganis-working-dir;"+dir)
	require.NoError(t, err)

	manifest, err := bundle.ReadManifest(output)
	require.NoError(t, err)
	assert.Zero(t, manifest.Len())

	// The exit status of the real linker is passed through without a message
	_, err = executeCommand(t, "link", "--linker", falseBin, "--output", output, "--", "-o", "app")
	inner, code := exitcodes.GetInnerErrorAndExitCode(err)
	assert.NoError(t, inner)
	assert.Equal(t, 1, code)

	_, err = executeCommand(t, "link", "--output", output, "--", "-o", "app")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "manganis version")
}
