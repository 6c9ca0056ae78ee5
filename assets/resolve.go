package assets

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/crytic/manganis/version"
)

// RemoteMetadata is what the pipeline needs to know about a remote asset without downloading it.
type RemoteMetadata struct {
	ContentType  string
	LastModified string
	ETag         string
}

// RemoteInspector looks up metadata and content of remote assets.
type RemoteInspector interface {
	Inspect(ctx context.Context, rawURL string) (RemoteMetadata, error)
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Resolver turns user-supplied asset references into sources and unique names. Relative paths are resolved against
// ManifestDir. Remote may be nil, in which case remote sources hash with FreshnessUnknown.
type Resolver struct {
	ManifestDir string
	Remote      RemoteInspector
	ToolVersion string
}

// NewResolver creates a Resolver for a package rooted at manifestDir.
func NewResolver(manifestDir string, remote RemoteInspector) *Resolver {
	return &Resolver{
		ManifestDir: manifestDir,
		Remote:      remote,
		ToolVersion: version.Fingerprint(),
	}
}

// ResolveSource parses spec as an http(s) URL, falling back to a filesystem path. Paths are made absolute against the
// manifest directory and canonicalized.
func (r *Resolver) ResolveSource(spec string) (Source, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Source{}, &ResolutionError{Kind: ErrInvalidInput, Input: spec, ManifestDir: r.ManifestDir}
	}

	if u, err := url.Parse(spec); err == nil && u.Host != "" {
		switch u.Scheme {
		case "http", "https":
			return RemoteSource(u.String()), nil
		default:
			return Source{}, &ResolutionError{
				Kind:  ErrInvalidInput,
				Input: spec,
				Err:   errors.New("only http and https URLs are supported"),
			}
		}
	}

	resolved := filepath.FromSlash(spec)
	relative := !filepath.IsAbs(resolved)
	if relative {
		resolved = filepath.Join(r.ManifestDir, resolved)
	}

	if _, err := os.Stat(resolved); err != nil {
		kind := ErrIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrNotFound
			if relative {
				kind = ErrNotFoundRelative
			}
		}
		return Source{}, &ResolutionError{Kind: kind, Input: spec, Resolved: resolved, ManifestDir: r.ManifestDir, Err: err}
	}

	canonical, err := filepath.EvalSymlinks(resolved)
	if err == nil {
		canonical, err = filepath.Abs(canonical)
	}
	if err != nil {
		return Source{}, &ResolutionError{Kind: ErrIO, Input: spec, Resolved: resolved, ManifestDir: r.ManifestDir, Err: err}
	}
	return LocalSource(canonical), nil
}

// ResolveFile resolves spec and requires it to name a file or a URL.
func (r *Resolver) ResolveFile(spec string) (Source, error) {
	source, err := r.ResolveSource(spec)
	if err != nil {
		return Source{}, err
	}
	if source.IsLocal() {
		info, err := os.Stat(source.Path)
		if err != nil {
			return Source{}, &ResolutionError{Kind: ErrIO, Input: spec, Resolved: source.Path, ManifestDir: r.ManifestDir, Err: err}
		}
		if info.IsDir() {
			return Source{}, &ResolutionError{Kind: ErrNotFile, Input: spec, Resolved: source.Path, ManifestDir: r.ManifestDir}
		}
	}
	return source, nil
}

// ResolveFolder resolves spec and requires it to name a local directory.
func (r *Resolver) ResolveFolder(spec string) (Source, error) {
	source, err := r.ResolveSource(spec)
	if err != nil {
		return Source{}, err
	}
	if source.IsRemote() {
		return Source{}, &ResolutionError{Kind: ErrNotFolder, Input: spec, Resolved: source.URL, ManifestDir: r.ManifestDir}
	}
	info, err := os.Stat(source.Path)
	if err != nil {
		return Source{}, &ResolutionError{Kind: ErrIO, Input: spec, Resolved: source.Path, ManifestDir: r.ManifestDir, Err: err}
	}
	if !info.IsDir() {
		return Source{}, &ResolutionError{Kind: ErrNotFolder, Input: spec, Resolved: source.Path, ManifestDir: r.ManifestDir}
	}
	return source, nil
}

// Freshness returns the signal used to detect that a source changed. Local files use their modification time. Remote
// files use Last-Modified, then ETag. When neither is available FreshnessUnknown is returned, and it is hashed like
// any other value.
func (r *Resolver) Freshness(ctx context.Context, source Source) string {
	if source.IsLocal() {
		info, err := os.Stat(source.Path)
		if err != nil {
			return FreshnessUnknown
		}
		return localFreshness(info)
	}

	if r.Remote == nil {
		return FreshnessUnknown
	}
	meta, err := r.Remote.Inspect(ctx, source.URL)
	if err != nil {
		return FreshnessUnknown
	}
	switch {
	case meta.LastModified != "":
		return "last-modified:" + meta.LastModified
	case meta.ETag != "":
		return "etag:" + meta.ETag
	}
	return FreshnessUnknown
}

// UniqueName computes the unique name of a file source under the given options.
func (r *Resolver) UniqueName(ctx context.Context, source Source, options Options) string {
	return ComputeUniqueName(source, options, r.Freshness(ctx, source), r.toolVersion())
}

// DefaultOptions picks options for a source from its extension. Remote sources without an extension fall back to the
// content type reported by the server.
func (r *Resolver) DefaultOptions(ctx context.Context, source Source) Options {
	ext := source.Extension()
	if ext == "" && source.IsRemote() && r.Remote != nil {
		if meta, err := r.Remote.Inspect(ctx, source.URL); err == nil {
			ext = ExtensionForMime(meta.ContentType)
		}
	}
	return DefaultOptionsForExtension(ext)
}

// NewFileAsset resolves spec as a file and builds its asset record. Nil options select the defaults for the file's
// extension.
func (r *Resolver) NewFileAsset(ctx context.Context, spec string, options *Options, urlEncoded bool) (FileAsset, error) {
	source, err := r.ResolveFile(spec)
	if err != nil {
		return FileAsset{}, err
	}

	var opts Options
	if options != nil {
		opts = *options
	} else {
		opts = r.DefaultOptions(ctx, source)
	}
	if err = opts.Validate(); err != nil {
		return FileAsset{}, &ResolutionError{Kind: ErrInvalidInput, Input: spec, ManifestDir: r.ManifestDir, Err: err}
	}

	return FileAsset{
		Location:   Location{Source: source, UniqueName: r.UniqueName(ctx, source, opts)},
		Options:    opts,
		UrlEncoded: urlEncoded,
	}, nil
}

// NewFolderAsset resolves spec as a folder and builds its asset record.
func (r *Resolver) NewFolderAsset(spec string) (FolderAsset, error) {
	source, err := r.ResolveFolder(spec)
	if err != nil {
		return FolderAsset{}, err
	}
	name, err := ComputeFolderUniqueName(source.Path, r.toolVersion())
	if err != nil {
		return FolderAsset{}, &ResolutionError{Kind: ErrIO, Input: spec, Resolved: source.Path, ManifestDir: r.ManifestDir, Err: err}
	}
	return FolderAsset{Location: Location{Source: source, UniqueName: name}}, nil
}

// ComputeFolderUniqueName hashes every path segment below dir together with each file's freshness, so that any change
// in the subtree produces a different name. Entries are visited in lexical order.
func ComputeFolderUniqueName(dir string, toolVersion string) (string, error) {
	h := xxhash.New()
	writeHashField(h, "tool", toolVersion)
	writeHashField(h, "root", dir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
			writeHashField(h, "segment", segment)
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		writeHashField(h, "freshness", localFreshness(info))
		return nil
	})
	if err != nil {
		return "", err
	}

	return composeUniqueName(filepath.Base(dir), h.Sum64(), ""), nil
}

// toolVersion returns the configured tool fingerprint.
func (r *Resolver) toolVersion() string {
	if r.ToolVersion == "" {
		return version.Fingerprint()
	}
	return r.ToolVersion
}

// localFreshness formats a file's modification time.
func localFreshness(info fs.FileInfo) string {
	return info.ModTime().UTC().Format(time.RFC3339Nano)
}
