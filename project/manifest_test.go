package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/manganis/assets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
[package]
name = "lib-a"
version = "0.1.0"

[[assets]]
name = "Logo"
kind = "image"
source = "assets/logo.png"
format = "webp"
width = 52
height = 52
preload = true

[[assets]]
name = "Style"
kind = "css"
source = "style.css"
minify = false

[[assets]]
name = "Readme"
kind = "file"
source = "README.md"

[[assets]]
kind = "tailwind"
classes = "flex flex-col"

[[assets]]
kind = "metadata"
key = "theme"
value = "dark"

[[assets]]
name = "Fonts"
kind = "google_font"
families = ["Open Sans", "Roboto"]
weights = [400, 700]
display = "swap"
`

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(sampleManifest), 0644))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "lib-a", m.Package.Name)
	assert.Equal(t, "0.1.0", m.Package.Version)
	assert.Equal(t, "liba", m.Package.GoPackage)
	assert.Equal(t, filepath.Join(dir, LockFileName), m.LockFilePath())
	require.Len(t, m.Assets, 6)

	logo, err := m.Assets[0].Options()
	require.NoError(t, err)
	require.NotNil(t, logo)
	assert.Equal(t, assets.ImageWebp, logo.Image.Format)
	assert.Equal(t, &assets.ImageSize{Width: 52, Height: 52}, logo.Image.Size)
	assert.True(t, logo.Image.Compress)
	assert.True(t, logo.Image.Preload)

	style, err := m.Assets[1].Options()
	require.NoError(t, err)
	assert.False(t, style.Css.Minify)

	readme, err := m.Assets[2].Options()
	require.NoError(t, err)
	assert.Nil(t, readme, "plain files defer to their extension")

	fonts := m.Assets[5].GoogleFont()
	assert.Equal(t, []string{"Open Sans", "Roboto"}, fonts.Families)
	assert.Equal(t, []uint32{400, 700}, fonts.Weights)
	assert.Equal(t, "https://fonts.googleapis.com/css2?family=Open+Sans&family=Roboto&weight=400,700&display=swap", fonts.URL())
}

func TestLoadManifest_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing version": "[package]\nname = \"a\"\n",
		"unknown kind":    "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[[assets]]\nkind = \"sound\"\nsource = \"a.wav\"\n",
		"missing source":  "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[[assets]]\nkind = \"image\"\n",
		"bad identifier":  "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[[assets]]\nname = \"1x\"\nkind = \"file\"\nsource = \"a\"\n",
		"syntax":          "[package\n",
		"font no family":  "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[[assets]]\nkind = \"google_font\"\n",
		"font source":     "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[[assets]]\nkind = \"google_font\"\nfamilies = [\"Lato\"]\nsource = \"a.css\"\n",
	}
	for name, contents := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(contents), 0644))
		_, err := Load(dir)
		assert.Error(t, err, name)
	}
}

func TestDeclarationOptions_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := Declaration{Kind: "image", Source: "a.png", Format: "bmp"}.Options()
	assert.Error(t, err)

	opts, err := Declaration{Kind: "image", Source: "a.png", Format: "JPEG"}.Options()
	require.NoError(t, err)
	assert.Equal(t, "jpg", opts.Extension())
}

func TestFindAndLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFileName), []byte(sampleManifest), 0644))
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0755))

	m, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, root, m.Dir)
}

func TestFindAndLoadNotFound(t *testing.T) {
	t.Parallel()

	m, err := FindAndLoad(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGoIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "liba", GoIdentifier("lib-a", false))
	assert.Equal(t, "MyLogo", GoIdentifier("my logo", true))
	assert.Equal(t, "x3d", GoIdentifier("3d", false))
	assert.Equal(t, "assets", GoIdentifier("---", false))
}
