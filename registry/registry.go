package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/utils"
)

// RegistryFileName is the name of the registry file inside a package's cache directory.
const RegistryFileName = "assets.toml"

// CacheDirEnv overrides the asset cache directory.
const CacheDirEnv = "MANGANIS_CACHE_DIR"

// PackageIdentifier returns the cache key of a package: name, optional binary target and version joined by dashes.
func PackageIdentifier(name string, bin string, version string) string {
	if bin == "" {
		return name + "-" + version
	}
	return name + "-" + bin + "-" + version
}

// DefaultCacheDir returns the directory holding every package registry and the saved configuration.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return filepath.Abs(dir)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate the user cache directory: %w", err)
	}
	return filepath.Join(base, "manganis"), nil
}

// PackageDir returns the cache directory of a package.
func PackageDir(cacheDir string, packageID string) string {
	return filepath.Join(cacheDir, packageID)
}

// RegistryPath returns the registry file of a package.
func RegistryPath(cacheDir string, packageID string) string {
	return filepath.Join(PackageDir(cacheDir, packageID), RegistryFileName)
}

// ReadPackageAssets parses a registry file.
func ReadPackageAssets(path string) (assets.PackageAssets, error) {
	var pkg assets.PackageAssets
	if _, err := toml.DecodeFile(path, &pkg); err != nil {
		return assets.PackageAssets{}, fmt.Errorf("failed to parse asset registry '%s': %w", path, err)
	}
	for i, asset := range pkg.Assets {
		if err := asset.Validate(); err != nil {
			return assets.PackageAssets{}, fmt.Errorf("asset registry '%s' entry %d is invalid: %w", path, i, err)
		}
	}
	return pkg, nil
}

// WritePackageAssets replaces a registry file. The file is written to a temporary sibling and renamed into place.
func WritePackageAssets(path string, pkg assets.PackageAssets) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(pkg); err != nil {
		return fmt.Errorf("failed to encode asset registry for '%s': %w", pkg.Package, err)
	}
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Registry is the on-disk asset registry of a single package. It is only mutated by the build of that package.
type Registry struct {
	CacheDir string
	Package  string
	logger   *logging.Logger
}

// New returns the registry of packageID inside cacheDir.
func New(cacheDir string, packageID string) *Registry {
	return &Registry{
		CacheDir: cacheDir,
		Package:  packageID,
		logger:   logging.GlobalLogger.NewSubLogger("module", logging.REGISTRY_SERVICE),
	}
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return RegistryPath(r.CacheDir, r.Package)
}

// Clear removes the registry and everything else cached for the package.
func (r *Registry) Clear() error {
	r.logger.Debug("Clearing the asset registry of ", r.Package)
	if err := utils.DeleteDirectory(PackageDir(r.CacheDir, r.Package)); err != nil {
		return fmt.Errorf("failed to clear the asset registry of '%s': %w", r.Package, err)
	}
	return nil
}

// Load reads the registry. A registry that does not exist yet is empty.
func (r *Registry) Load() (assets.PackageAssets, error) {
	pkg, err := ReadPackageAssets(r.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return assets.PackageAssets{Package: r.Package, Assets: []assets.AssetType{}}, nil
	}
	if err != nil {
		return assets.PackageAssets{}, err
	}
	pkg.Package = r.Package
	return pkg, nil
}

// Save replaces the registry with pkg.
func (r *Registry) Save(pkg assets.PackageAssets) error {
	pkg.Package = r.Package
	if err := WritePackageAssets(r.Path(), pkg); err != nil {
		return fmt.Errorf("failed to write the asset registry of '%s': %w", r.Package, err)
	}
	return nil
}

// Add records a declaration. The registry is re-read before every write so that entries added by sibling
// compilations are kept. If an equivalent declaration is already present, it is returned unchanged, which makes a file
// declared twice resolve to the same unique name. The returned bool reports whether the registry was modified.
func (r *Registry) Add(asset assets.AssetType) (assets.AssetType, bool, error) {
	if err := asset.Validate(); err != nil {
		return assets.AssetType{}, false, err
	}

	pkg, err := r.Load()
	if err != nil {
		return assets.AssetType{}, false, err
	}

	for _, existing := range pkg.Assets {
		if existing.SameDeclaration(asset) {
			r.logger.Trace("Reusing registered ", existing)
			return existing, false, nil
		}
	}

	pkg.Assets = append(pkg.Assets, asset)
	if err = r.Save(pkg); err != nil {
		return assets.AssetType{}, false, err
	}
	r.logger.Debug("Registered ", asset, " for ", r.Package)
	return asset, true, nil
}
