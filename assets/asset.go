package assets

import (
	"fmt"
	"strings"
)

// Location pairs a source with the unique name its processed output is written under.
type Location struct {
	Source     Source `json:"source" toml:"source"`
	UniqueName string `json:"unique_name" toml:"unique_name"`
}

// FileAsset is a single file processed according to its options.
type FileAsset struct {
	Location   Location `json:"location" toml:"location"`
	Options    Options  `json:"options" toml:"options"`
	UrlEncoded bool     `json:"url_encoded" toml:"url_encoded"`
}

// FolderAsset is a directory copied as a whole. Its unique name covers every file below it.
type FolderAsset struct {
	Location Location `json:"location" toml:"location"`
}

// MetadataAsset is an opaque key/value pair carried through collection untouched.
type MetadataAsset struct {
	Key   string `json:"key" toml:"key"`
	Value string `json:"value" toml:"value"`
}

// TailwindAsset is a space-delimited string of utility classes.
type TailwindAsset struct {
	Classes string `json:"classes" toml:"classes"`
}

// AssetKind selects the variant of an AssetType.
type AssetKind string

const (
	AssetFile     AssetKind = "file"
	AssetFolder   AssetKind = "folder"
	AssetTailwind AssetKind = "tailwind"
	AssetMetadata AssetKind = "metadata"
)

// AssetType is the unit stored in a package registry and embedded in binaries. Kind selects which single payload
// field is set.
type AssetType struct {
	Kind     AssetKind      `json:"kind" toml:"kind"`
	File     *FileAsset     `json:"file,omitempty" toml:"file,omitempty"`
	Folder   *FolderAsset   `json:"folder,omitempty" toml:"folder,omitempty"`
	Tailwind *TailwindAsset `json:"tailwind,omitempty" toml:"tailwind,omitempty"`
	Metadata *MetadataAsset `json:"metadata,omitempty" toml:"metadata,omitempty"`
}

// NewFile wraps a file asset.
func NewFile(f FileAsset) AssetType {
	return AssetType{Kind: AssetFile, File: &f}
}

// NewFolder wraps a folder asset.
func NewFolder(f FolderAsset) AssetType {
	return AssetType{Kind: AssetFolder, Folder: &f}
}

// NewTailwind wraps a tailwind class string.
func NewTailwind(classes string) AssetType {
	return AssetType{Kind: AssetTailwind, Tailwind: &TailwindAsset{Classes: classes}}
}

// NewMetadata wraps a metadata pair.
func NewMetadata(key string, value string) AssetType {
	return AssetType{Kind: AssetMetadata, Metadata: &MetadataAsset{Key: key, Value: value}}
}

// Validate checks that the payload matches Kind.
func (a AssetType) Validate() error {
	switch a.Kind {
	case AssetFile:
		if a.File == nil {
			return fmt.Errorf("file asset is missing its payload")
		}
		if a.File.Location.UniqueName == "" {
			return fmt.Errorf("file asset '%s' has no unique name", a.File.Location.Source)
		}
		return a.File.Options.Validate()
	case AssetFolder:
		if a.Folder == nil {
			return fmt.Errorf("folder asset is missing its payload")
		}
		if a.Folder.Location.UniqueName == "" {
			return fmt.Errorf("folder asset '%s' has no unique name", a.Folder.Location.Source)
		}
	case AssetTailwind:
		if a.Tailwind == nil {
			return fmt.Errorf("tailwind asset is missing its payload")
		}
	case AssetMetadata:
		if a.Metadata == nil {
			return fmt.Errorf("metadata asset is missing its payload")
		}
	default:
		return fmt.Errorf("unknown asset kind '%s'", a.Kind)
	}
	return nil
}

// SameDeclaration reports whether b declares the same asset as a. Files match on (source, options), folders on
// source, and tailwind and metadata assets on their full value.
func (a AssetType) SameDeclaration(b AssetType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AssetFile:
		return a.File != nil && b.File != nil &&
			a.File.Location.Source == b.File.Location.Source &&
			a.File.Options.Equal(b.File.Options)
	case AssetFolder:
		return a.Folder != nil && b.Folder != nil && a.Folder.Location.Source == b.Folder.Location.Source
	case AssetTailwind:
		return a.Tailwind != nil && b.Tailwind != nil && *a.Tailwind == *b.Tailwind
	case AssetMetadata:
		return a.Metadata != nil && b.Metadata != nil && *a.Metadata == *b.Metadata
	}
	return false
}

// String returns a short description of the asset for logs.
func (a AssetType) String() string {
	switch {
	case a.File != nil:
		return fmt.Sprintf("file %s (%s) as %s", a.File.Location.Source, a.File.Options, a.File.Location.UniqueName)
	case a.Folder != nil:
		return fmt.Sprintf("folder %s as %s", a.Folder.Location.Source, a.Folder.Location.UniqueName)
	case a.Tailwind != nil:
		return fmt.Sprintf("tailwind %q", a.Tailwind.Classes)
	case a.Metadata != nil:
		return fmt.Sprintf("metadata %s=%s", a.Metadata.Key, a.Metadata.Value)
	}
	return string(a.Kind)
}

// PackageAssets is the set of assets declared by one package, in declaration order.
type PackageAssets struct {
	Package string      `json:"package" toml:"package"`
	Assets  []AssetType `json:"assets" toml:"assets"`
}

// AssetManifest is the collected set of assets across packages. It is read-only once assembled.
type AssetManifest struct {
	Packages []PackageAssets `json:"packages" toml:"packages"`
}

// Len returns the total number of assets in the manifest.
func (m AssetManifest) Len() int {
	n := 0
	for _, p := range m.Packages {
		n += len(p.Assets)
	}
	return n
}

// Files returns every file asset in manifest order.
func (m AssetManifest) Files() []FileAsset {
	var files []FileAsset
	for _, p := range m.Packages {
		for _, a := range p.Assets {
			if a.Kind == AssetFile && a.File != nil {
				files = append(files, *a.File)
			}
		}
	}
	return files
}

// Folders returns every folder asset in manifest order.
func (m AssetManifest) Folders() []FolderAsset {
	var folders []FolderAsset
	for _, p := range m.Packages {
		for _, a := range p.Assets {
			if a.Kind == AssetFolder && a.Folder != nil {
				folders = append(folders, *a.Folder)
			}
		}
	}
	return folders
}

// Metadata returns every metadata pair in manifest order.
func (m AssetManifest) Metadata() []MetadataAsset {
	var metadata []MetadataAsset
	for _, p := range m.Packages {
		for _, a := range p.Assets {
			if a.Kind == AssetMetadata && a.Metadata != nil {
				metadata = append(metadata, *a.Metadata)
			}
		}
	}
	return metadata
}

// TailwindClasses concatenates every tailwind class string in the manifest, separated by a space.
func (m AssetManifest) TailwindClasses() string {
	var classes []string
	for _, p := range m.Packages {
		for _, a := range p.Assets {
			if a.Kind == AssetTailwind && a.Tailwind != nil {
				classes = append(classes, a.Tailwind.Classes)
			}
		}
	}
	return strings.Join(classes, " ")
}

// Package returns the assets of the named package, if it is part of the manifest.
func (m AssetManifest) Package(name string) (PackageAssets, bool) {
	for _, p := range m.Packages {
		if p.Package == name {
			return p, true
		}
	}
	return PackageAssets{}, false
}
