package assets

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crytic/manganis/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUniqueName_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutils.WriteTestFile(t, dir, "logo.png", []byte("png"))
	resolver := NewResolver(dir, nil)

	source, err := resolver.ResolveFile("logo.png")
	require.NoError(t, err)
	options := NewImageOptions(ImageOptions{Format: ImageWebp, Size: &ImageSize{Width: 52, Height: 52}})

	first := resolver.UniqueName(context.Background(), source, options)
	second := resolver.UniqueName(context.Background(), source, options)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "logo"))
	assert.True(t, strings.HasSuffix(first, ".webp"))
}

func TestComputeUniqueName_ChangeSensitivity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutils.WriteTestFile(t, dir, "logo.png", []byte("png"))
	resolver := NewResolver(dir, nil)

	source, err := resolver.ResolveFile("logo.png")
	require.NoError(t, err)
	png := NewImageOptions(ImageOptions{Format: ImagePng})
	jpg := NewImageOptions(ImageOptions{Format: ImageJpg})
	pngCompressed := NewImageOptions(ImageOptions{Format: ImagePng, Compress: true})

	base := resolver.UniqueName(context.Background(), source, png)

	// Different options, same source
	assert.NotEqual(t, base, resolver.UniqueName(context.Background(), source, jpg))
	assert.NotEqual(t, base, resolver.UniqueName(context.Background(), source, pngCompressed))

	// Same options, newer modification time
	testutils.TouchTestFile(t, path, time.Minute)
	assert.NotEqual(t, base, resolver.UniqueName(context.Background(), source, png))
}

func TestComputeUniqueName_ToolVersion(t *testing.T) {
	t.Parallel()

	source := LocalSource(filepath.Join("/", "project", "style.css"))
	options := NewCssOptions(CssOptions{Minify: true})

	a := ComputeUniqueName(source, options, "2024-01-01T00:00:00Z", "0.3.0+abc")
	b := ComputeUniqueName(source, options, "2024-01-01T00:00:00Z", "0.3.1+def")
	assert.NotEqual(t, a, b)
}

func TestComputeUniqueName_LengthInvariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		segment string
		options Options
	}{
		{"a.png", NewImageOptions(ImageOptions{Format: ImageAvif})},
		{strings.Repeat("x", 400) + ".png", NewImageOptions(ImageOptions{Format: ImagePng})},
		{strings.Repeat("long-name_", 40) + ".woff2", NewFontOptions(FontOptions{Format: FontWoff2})},
		{"no-extension", NewOtherOptions("")},
		{"archive.tar.gz", NewOtherOptions(strings.Repeat("e", 200))},
		{"ünïcödé.json", NewJsonOptions(JsonOptions{})},
	}

	for _, c := range cases {
		name := ComputeUniqueName(LocalSource(filepath.Join("/", "assets", c.segment)), c.options, FreshnessUnknown, "v")
		assert.LessOrEqual(t, len(name), MaxUniqueNameLength, c.segment)

		if ext := c.options.Extension(); ext != "" && len(ext)+HashSuffixLength < MaxUniqueNameLength {
			assert.True(t, strings.HasSuffix(name, "."+ext), "%s should end with .%s", name, ext)
		}
	}
}

func TestComputeUniqueName_StemIsAlphanumeric(t *testing.T) {
	t.Parallel()

	name := ComputeUniqueName(LocalSource("/x/my logo-v2 (final).png"), NewImageOptions(ImageOptions{Format: ImagePng}), "f", "v")
	stem := name[:len(name)-HashSuffixLength-len(".png")]
	assert.Equal(t, "mylogov2final", stem)
}

func TestComputeUniqueName_TruncatesStemOnly(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 300) + ".css"
	options := NewCssOptions(CssOptions{})
	name := ComputeUniqueName(LocalSource("/x/"+long), options, "f", "v")

	require.Len(t, name, MaxUniqueNameLength)
	hash := name[len(name)-HashSuffixLength-len(".css") : len(name)-len(".css")]
	assert.Regexp(t, "^[0-9a-f]{16}$", hash)
}

func TestComputeUniqueName_RemoteFreshness(t *testing.T) {
	t.Parallel()

	source := RemoteSource("https://example.com/images/banner.jpg?v=1")
	options := NewImageOptions(ImageOptions{Format: ImageJpg})

	old := ComputeUniqueName(source, options, "last-modified:Mon, 01 Jan 2024 00:00:00 GMT", "v")
	updated := ComputeUniqueName(source, options, "last-modified:Tue, 02 Jan 2024 00:00:00 GMT", "v")
	unknown := ComputeUniqueName(source, options, FreshnessUnknown, "v")

	assert.NotEqual(t, old, updated)
	assert.NotEqual(t, old, unknown)
	assert.True(t, strings.HasPrefix(old, "banner"))
}

func TestComputeFolderUniqueName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutils.WriteTestFile(t, dir, "static/a.txt", []byte("a"))
	nested := testutils.WriteTestFile(t, dir, "static/nested/b.txt", []byte("b"))
	folder := filepath.Join(dir, "static")

	first, err := ComputeFolderUniqueName(folder, "v")
	require.NoError(t, err)
	second, err := ComputeFolderUniqueName(folder, "v")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "static"))

	// A change deep in the tree changes the name
	testutils.TouchTestFile(t, nested, time.Minute)
	touched, err := ComputeFolderUniqueName(folder, "v")
	require.NoError(t, err)
	assert.NotEqual(t, first, touched)

	// So does a new file
	testutils.WriteTestFile(t, dir, "static/c.txt", []byte("c"))
	added, err := ComputeFolderUniqueName(folder, "v")
	require.NoError(t, err)
	assert.NotEqual(t, touched, added)
}
