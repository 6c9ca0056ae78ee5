package assets

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// SourceKind distinguishes local files from remote URLs.
type SourceKind string

const (
	// SourceLocal is a canonical absolute path on the local filesystem.
	SourceLocal SourceKind = "local"
	// SourceRemote is an absolute http(s) URL.
	SourceRemote SourceKind = "remote"
)

// Source identifies where an asset's bytes come from. Exactly one of Path or URL is set, according to Kind.
type Source struct {
	Kind SourceKind `json:"kind" toml:"kind"`
	Path string     `json:"path,omitempty" toml:"path,omitempty"`
	URL  string     `json:"url,omitempty" toml:"url,omitempty"`
}

// LocalSource returns a Source for a canonical local path.
func LocalSource(path string) Source {
	return Source{Kind: SourceLocal, Path: path}
}

// RemoteSource returns a Source for a remote URL.
func RemoteSource(rawURL string) Source {
	return Source{Kind: SourceRemote, URL: rawURL}
}

// IsLocal reports whether the source lives on the local filesystem.
func (s Source) IsLocal() bool {
	return s.Kind == SourceLocal
}

// IsRemote reports whether the source is fetched over the network.
func (s Source) IsRemote() bool {
	return s.Kind == SourceRemote
}

// String returns the path or URL of the source.
func (s Source) String() string {
	if s.IsRemote() {
		return s.URL
	}
	return s.Path
}

// LastSegment returns the final path segment of the source. Query strings and fragments of remote URLs are ignored.
func (s Source) LastSegment() string {
	if s.IsRemote() {
		u, err := url.Parse(s.URL)
		if err != nil {
			return ""
		}
		segment := path.Base(strings.TrimSuffix(u.Path, "/"))
		if segment == "." || segment == "/" {
			return u.Hostname()
		}
		return segment
	}
	return filepath.Base(s.Path)
}

// Extension returns the lowercase extension of the last segment, without the leading dot.
func (s Source) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(s.LastSegment()), "."))
}
