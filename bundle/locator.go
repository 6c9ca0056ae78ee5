package bundle

import (
	"context"
	"path/filepath"

	"github.com/crytic/manganis/assets"
)

// Locator computes the string an application uses to reach a file asset at runtime.
type Locator struct {
	// ServeRoot is the prefix unique names are appended to.
	ServeRoot string
	// Support reports whether the build runs under a tool that will materialize the assets.
	Support bool
	// ManifestDir is the directory of the declaring package.
	ManifestDir string
	// Bundler renders url-encoded assets.
	Bundler *Bundler
}

// ServedLocation returns the served form of file. A url-encoded file is inlined as a data URI of its processed
// contents. Without support, local files are referenced by their path relative to the package and remote files by
// their URL, so that the application still works when run directly. Otherwise the location is the serve root followed
// by the unique name.
func (l *Locator) ServedLocation(ctx context.Context, file assets.FileAsset) (string, error) {
	if file.UrlEncoded {
		bundler := l.Bundler
		if bundler == nil {
			bundler = NewBundler(nil)
		}
		data, err := bundler.Render(ctx, file)
		if err != nil {
			return "", err
		}
		return assets.DataURI(assets.MimeForExtension(file.Options.Extension()), data), nil
	}

	if !l.Support {
		source := file.Location.Source
		if source.IsRemote() {
			return source.URL, nil
		}
		if rel, err := filepath.Rel(l.ManifestDir, source.Path); err == nil {
			return filepath.ToSlash(rel), nil
		}
		return filepath.ToSlash(source.Path), nil
	}

	return l.ServeRoot + file.Location.UniqueName, nil
}

// FolderLocation returns the served form of a folder asset.
func (l *Locator) FolderLocation(folder assets.FolderAsset) string {
	if !l.Support {
		if rel, err := filepath.Rel(l.ManifestDir, folder.Location.Source.Path); err == nil {
			return filepath.ToSlash(rel)
		}
		return filepath.ToSlash(folder.Location.Source.Path)
	}
	return l.ServeRoot + folder.Location.UniqueName
}
