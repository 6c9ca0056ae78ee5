package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleFile(path string, options Options, name string) AssetType {
	return NewFile(FileAsset{
		Location: Location{Source: LocalSource(path), UniqueName: name},
		Options:  options,
	})
}

func TestSameDeclaration(t *testing.T) {
	t.Parallel()

	png := NewImageOptions(ImageOptions{Format: ImagePng})
	webp := NewImageOptions(ImageOptions{Format: ImageWebp})

	a := sampleFile("/p/logo.png", png, "logo1")
	assert.True(t, a.SameDeclaration(sampleFile("/p/logo.png", png, "logo2")), "unique names are not part of identity")
	assert.False(t, a.SameDeclaration(sampleFile("/p/logo.png", webp, "logo3")), "same file with other options must not collide")
	assert.False(t, a.SameDeclaration(sampleFile("/p/other.png", png, "other")))

	assert.True(t, NewTailwind("p-10").SameDeclaration(NewTailwind("p-10")))
	assert.False(t, NewTailwind("p-10").SameDeclaration(NewMetadata("p-10", "")))
	assert.True(t, NewMetadata("k", "v").SameDeclaration(NewMetadata("k", "v")))
}

func TestAssetTypeValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, sampleFile("/p/a.css", NewCssOptions(CssOptions{}), "a").Validate())
	assert.Error(t, AssetType{Kind: AssetFile}.Validate())
	assert.Error(t, sampleFile("/p/a.css", NewCssOptions(CssOptions{}), "").Validate())
	assert.Error(t, AssetType{Kind: "bogus"}.Validate())

	both := NewImageOptions(ImageOptions{Format: ImagePng})
	both.Css = &CssOptions{}
	assert.Error(t, both.Validate())

	zero := NewImageOptions(ImageOptions{Format: ImagePng, Size: &ImageSize{Width: 0, Height: 10}})
	assert.Error(t, zero.Validate())
}

func TestManifestViews(t *testing.T) {
	t.Parallel()

	manifest := AssetManifest{Packages: []PackageAssets{
		{Package: "liba-0.1.0", Assets: []AssetType{
			sampleFile("/a/logo.png", NewImageOptions(ImageOptions{Format: ImagePng}), "logo"),
			NewTailwind("p-10"),
			NewMetadata("theme", "dark"),
		}},
		{Package: "libb-1.0.0", Assets: []AssetType{
			NewTailwind("flex flex-col"),
			NewFolder(FolderAsset{Location: Location{Source: LocalSource("/b/static"), UniqueName: "static0"}}),
		}},
	}}

	assert.Equal(t, 5, manifest.Len())
	assert.Len(t, manifest.Files(), 1)
	assert.Len(t, manifest.Folders(), 1)
	assert.Equal(t, []MetadataAsset{{Key: "theme", Value: "dark"}}, manifest.Metadata())
	assert.Equal(t, "p-10 flex flex-col", manifest.TailwindClasses())

	pkg, ok := manifest.Package("libb-1.0.0")
	assert.True(t, ok)
	assert.Len(t, pkg.Assets, 2)
}

func TestDefaultOptionsForExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jpg", DefaultOptionsForExtension("JPEG").Extension())
	assert.Equal(t, KindVideo, DefaultOptionsForExtension("gif").Kind)
	assert.Equal(t, KindFont, DefaultOptionsForExtension(".woff2").Kind)
	assert.True(t, DefaultOptionsForExtension("css").Css.Minify)
	assert.Equal(t, "wasm", DefaultOptionsForExtension("wasm").Extension())

	for _, ext := range []string{"png", "mp4", "ttf", "json", "txt"} {
		assert.NoError(t, DefaultOptionsForExtension(ext).Validate(), ext)
	}
}
