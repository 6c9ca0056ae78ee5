// Package project handles the manganis.toml declaration file and the manganis.lock dependency lockfile.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/crytic/manganis/assets"
)

// ManifestFileName is the name of the per-package declaration file.
const ManifestFileName = "manganis.toml"

// Manifest is a package's manganis.toml: its identity and the assets it declares.
type Manifest struct {
	Package Package       `toml:"package"`
	Assets  []Declaration `toml:"assets"`

	// Dir is the directory containing the manganis.toml file (set at load time).
	Dir string `toml:"-"`
}

// Package identifies the declaring package.
type Package struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Bin     string `toml:"bin"`
	// GoPackage is the package clause of the generated Go file. It defaults to the sanitized package name.
	GoPackage string `toml:"go_package"`
}

// Declaration is one [[assets]] entry. Kind selects which of the remaining fields are meaningful.
type Declaration struct {
	// Name is the Go identifier the served location is exported under. It may be empty for tailwind and metadata.
	Name   string `toml:"name"`
	Kind   string `toml:"kind"`
	Source string `toml:"source"`

	Format     string `toml:"format"`
	Extension  string `toml:"extension"`
	Width      uint32 `toml:"width"`
	Height     uint32 `toml:"height"`
	Compress   *bool  `toml:"compress"`
	Preload    bool   `toml:"preload"`
	Minify     *bool  `toml:"minify"`
	UrlEncoded bool   `toml:"url_encoded"`

	Classes string `toml:"classes"`
	Key     string `toml:"key"`
	Value   string `toml:"value"`

	// Google Fonts stylesheet selection.
	Families []string `toml:"families"`
	Weights  []uint32 `toml:"weights"`
	Text     string   `toml:"text"`
	Display  string   `toml:"display"`
}

// Declaration kinds beyond the file option kinds.
const (
	DeclareFile     = "file"
	DeclareFolder   = "folder"
	DeclareTailwind = "tailwind"
	DeclareMetadata = "metadata"
	// DeclareGoogleFont declares a Google Fonts stylesheet, served as a remote css file.
	DeclareGoogleFont = "google_font"
)

// Load parses the manganis.toml file in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Package.Name == "" || m.Package.Version == "" {
		return nil, fmt.Errorf("%s must set both package.name and package.version", path)
	}
	if m.Package.GoPackage == "" {
		m.Package.GoPackage = GoIdentifier(m.Package.Name, false)
	}
	for i, decl := range m.Assets {
		if err := decl.validate(); err != nil {
			return nil, fmt.Errorf("%s: assets[%d]: %w", path, i, err)
		}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a manganis.toml file and loads it. Returns nil if none is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err == nil {
			return Load(dir)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LockFilePath returns the path of the lockfile that sits next to the manifest.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, LockFileName)
}

// validate checks the fields required by the declaration's kind.
func (d Declaration) validate() error {
	switch d.Kind {
	case DeclareTailwind:
		if strings.TrimSpace(d.Classes) == "" {
			return fmt.Errorf("tailwind declarations need classes")
		}
		return nil
	case DeclareMetadata:
		if d.Key == "" {
			return fmt.Errorf("metadata declarations need a key")
		}
		return nil
	case DeclareGoogleFont:
		if len(d.Families) == 0 {
			return fmt.Errorf("google_font declarations need at least one family")
		}
		if d.Source != "" {
			return fmt.Errorf("google_font declarations build their own source")
		}
		if d.Name != "" && !isGoIdentifier(d.Name) {
			return fmt.Errorf("'%s' is not a valid Go identifier", d.Name)
		}
		return nil
	case DeclareFolder, DeclareFile,
		string(assets.KindImage), string(assets.KindVideo), string(assets.KindFont),
		string(assets.KindCss), string(assets.KindJson), string(assets.KindOther):
		if d.Source == "" {
			return fmt.Errorf("%s declarations need a source", d.Kind)
		}
		if d.Name != "" && !isGoIdentifier(d.Name) {
			return fmt.Errorf("'%s' is not a valid Go identifier", d.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown asset kind '%s'", d.Kind)
	}
}

// Options converts the declaration into asset options. It returns nil for plain file declarations without a format
// or extension, leaving the choice to the file's extension.
func (d Declaration) Options() (*assets.Options, error) {
	var opts assets.Options
	switch assets.OptionsKind(d.Kind) {
	case assets.KindImage:
		image := assets.ImageOptions{
			Format:   assets.ImageFormat(strings.ToLower(d.Format)),
			Compress: boolOr(d.Compress, true),
			Preload:  d.Preload,
		}
		if image.Format == "jpeg" {
			image.Format = assets.ImageJpg
		}
		if d.Width != 0 || d.Height != 0 {
			image.Size = &assets.ImageSize{Width: d.Width, Height: d.Height}
		}
		opts = assets.NewImageOptions(image)
	case assets.KindVideo:
		opts = assets.NewVideoOptions(assets.VideoOptions{
			Format:   assets.VideoFormat(strings.ToLower(d.Format)),
			Compress: boolOr(d.Compress, false),
			Preload:  d.Preload,
		})
	case assets.KindFont:
		opts = assets.NewFontOptions(assets.FontOptions{Format: assets.FontFormat(strings.ToLower(d.Format))})
	case assets.KindCss:
		opts = assets.NewCssOptions(assets.CssOptions{Minify: boolOr(d.Minify, true), Preload: d.Preload})
	case assets.KindJson:
		opts = assets.NewJsonOptions(assets.JsonOptions{Preload: d.Preload})
	case assets.KindOther:
		opts = assets.NewOtherOptions(d.Extension)
	default:
		// Plain files pick their options from an explicit format or extension when one is given
		switch {
		case d.Format != "":
			opts = assets.DefaultOptionsForExtension(d.Format)
		case d.Extension != "":
			opts = assets.NewOtherOptions(d.Extension)
		default:
			return nil, nil
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// GoogleFont returns the stylesheet selection of a google_font declaration.
func (d Declaration) GoogleFont() assets.GoogleFont {
	return assets.GoogleFont{
		Families: d.Families,
		Weights:  d.Weights,
		Text:     d.Text,
		Display:  d.Display,
	}
}

// GoIdentifier converts an arbitrary name into a Go identifier. Exported identifiers start with an upper case letter.
func GoIdentifier(name string, exported bool) string {
	var sb strings.Builder
	upperNext := exported
	for _, r := range name {
		if r >= unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upperNext = exported
			continue
		}
		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteByte('x')
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		} else if sb.Len() == 0 && !exported {
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "assets"
	}
	return sb.String()
}

// isGoIdentifier reports whether s is a valid exported or unexported Go identifier.
func isGoIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}

// boolOr dereferences b, returning def when it is unset.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
