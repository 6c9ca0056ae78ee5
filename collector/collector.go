package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/project"
	"github.com/crytic/manganis/registry"
)

// collectorLogger is the logger used by the collector package.
var collectorLogger = logging.GlobalLogger.NewSubLogger("module", logging.COLLECTOR_SERVICE)

// Options configures a collection.
type Options struct {
	// CacheDir holds the package registries.
	CacheDir string
	// RootBin is the binary target of the root package, if any. Dependencies never have one.
	RootBin string
}

// PackageError reports a dependency whose registry could not be read. It does not stop the collection.
type PackageError struct {
	Package string
	Err     error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	return fmt.Sprintf("skipping assets of '%s': %v", e.Package, e.Err)
}

// Unwrap returns the underlying error.
func (e *PackageError) Unwrap() error {
	return e.Err
}

// Collect gathers the registries of root and every package reachable from it. The cache directory is listed once up
// front and only packages that have a directory there are read, which avoids probing the filesystem for the many
// dependencies that never declare assets. A registry that cannot be read is logged and reported in the returned
// slice, and the rest of the graph is still collected.
func Collect(graph *project.Graph, root project.NodeID, opts Options) (assets.AssetManifest, []error) {
	manifest := assets.AssetManifest{Packages: []assets.PackageAssets{}}

	known, err := listPackageDirs(opts.CacheDir)
	if err != nil {
		return manifest, []error{err}
	}
	if len(known) == 0 {
		return manifest, nil
	}

	var failures []error
	for _, id := range graph.Reachable(root) {
		node := graph.Node(id)
		bin := ""
		if id == root {
			bin = opts.RootBin
		}
		packageID := registry.PackageIdentifier(node.Name, bin, node.Version)
		if _, ok := known[packageID]; !ok {
			continue
		}

		pkg, err := registry.ReadPackageAssets(registry.RegistryPath(opts.CacheDir, packageID))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			collectorLogger.Warn("Failed to read the asset registry of ", colors.Bold, packageID, colors.Reset, err)
			failures = append(failures, &PackageError{Package: packageID, Err: err})
			continue
		}
		if len(pkg.Assets) == 0 {
			continue
		}

		pkg.Package = packageID
		collectorLogger.Debug("Collected ", len(pkg.Assets), " assets from ", packageID)
		manifest.Packages = append(manifest.Packages, pkg)
	}
	return manifest, failures
}

// LoadFromProject collects the assets of the package whose manganis.toml is found at or above dir. The lockfile is
// looked up from the package directory upwards. A missing manifest, an unreadable lockfile or a root package absent
// from the lockfile are returned as errors; per-dependency failures are returned separately.
func LoadFromProject(dir string, opts Options) (assets.AssetManifest, []error, error) {
	manifest, err := project.FindAndLoad(dir)
	if err != nil {
		return assets.AssetManifest{}, nil, err
	}
	if manifest == nil {
		return assets.AssetManifest{}, nil, fmt.Errorf("no %s found in %s or any parent directory", project.ManifestFileName, dir)
	}
	if opts.RootBin == "" {
		opts.RootBin = manifest.Package.Bin
	}

	lockPath, err := project.FindLockfile(manifest.Dir)
	if err != nil {
		return assets.AssetManifest{}, nil, err
	}
	lock, err := project.LoadLockfile(lockPath)
	if err != nil {
		return assets.AssetManifest{}, nil, err
	}
	graph, err := project.BuildGraph(lock)
	if err != nil {
		return assets.AssetManifest{}, nil, err
	}
	root, err := graph.Find(manifest.Package.Name, manifest.Package.Version)
	if err != nil {
		return assets.AssetManifest{}, nil, fmt.Errorf("cannot find the root package in %s: %w", lockPath, err)
	}

	collected, failures := Collect(graph, root, opts)
	return collected, failures, nil
}

// listPackageDirs returns the set of package directories in the cache. A cache that does not exist yet is empty.
func listPackageDirs(cacheDir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(cacheDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list the asset cache %s: %w", cacheDir, err)
	}

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			known[entry.Name()] = struct{}{}
		}
	}
	return known, nil
}
