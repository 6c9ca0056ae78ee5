package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/utils"
)

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (assets.AssetManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return assets.AssetManifest{}, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}

	var manifest assets.AssetManifest
	if err = json.Unmarshal(data, &manifest); err != nil {
		return assets.AssetManifest{}, fmt.Errorf("parse error in manifest %s: %w", path, err)
	}
	for _, pkg := range manifest.Packages {
		for i, asset := range pkg.Assets {
			if err = asset.Validate(); err != nil {
				return assets.AssetManifest{}, fmt.Errorf("manifest %s: %s asset %d: %w", path, pkg.Package, i, err)
			}
		}
	}
	return manifest, nil
}

// WriteManifest writes manifest to path as indented JSON.
func WriteManifest(path string, manifest assets.AssetManifest) error {
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		return EncodeManifest(w, manifest)
	})
}

// EncodeManifest writes manifest to w as indented JSON.
func EncodeManifest(w io.Writer, manifest assets.AssetManifest) error {
	if manifest.Packages == nil {
		manifest.Packages = []assets.PackageAssets{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}

// MergeManifests combines manifests gathered from different places, for instance the registries and the linked
// binary. Packages with the same name are merged and assets already present are dropped.
func MergeManifests(manifests ...assets.AssetManifest) assets.AssetManifest {
	merged := assets.AssetManifest{Packages: []assets.PackageAssets{}}
	index := make(map[string]int)

	for _, manifest := range manifests {
		for _, pkg := range manifest.Packages {
			i, ok := index[pkg.Package]
			if !ok {
				i = len(merged.Packages)
				index[pkg.Package] = i
				merged.Packages = append(merged.Packages, assets.PackageAssets{Package: pkg.Package, Assets: []assets.AssetType{}})
			}
			target := &merged.Packages[i]
			for _, asset := range pkg.Assets {
				if !containsDeclaration(target.Assets, asset) {
					target.Assets = append(target.Assets, asset)
				}
			}
		}
	}
	return merged
}

func containsDeclaration(list []assets.AssetType, asset assets.AssetType) bool {
	for _, existing := range list {
		if existing.SameDeclaration(asset) {
			return true
		}
	}
	return false
}
