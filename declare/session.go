package declare

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/project"
	"github.com/crytic/manganis/registry"
)

// Declaration is the outcome of declaring one asset.
type Declaration struct {
	// Name is the Go identifier the served location is exported under, if any.
	Name string
	// Asset is the registered asset. A repeated declaration returns the asset registered first.
	Asset assets.AssetType
	// Served is the string the application uses at runtime.
	Served string
	// Err is a recoverable *SupportError when Served is a fallback.
	Err error
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Package identifies the declaring package.
	Package project.Package
	// ManifestDir is the directory relative sources are resolved against.
	ManifestDir string
	// CacheDir holds the package registries.
	CacheDir string
	// Config decides the serve root.
	Config *config.Config
	// Support reports whether a tool will collect and materialize the assets.
	Support bool
	// Primary reports whether the package is the one being built, as opposed to a dependency.
	Primary bool
	// Remote looks up remote sources. It may be nil.
	Remote assets.RemoteInspector
}

// Session holds the state of one package's declaration step. The registry is cleared once per session, before the
// first declaration or when Apply starts, so that assets removed from the package do not linger, and every later
// declaration is appended.
type Session struct {
	packageID   string
	support     bool
	primary     bool
	initialized bool

	registry *registry.Registry
	resolver *assets.Resolver
	locator  *bundle.Locator
	records  []assets.AssetType
	logger   *logging.Logger
}

// NewSession creates a Session. The support and primary flags are captured once here.
func NewSession(opts SessionOptions) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default(config.TargetOS())
	}
	packageID := registry.PackageIdentifier(opts.Package.Name, opts.Package.Bin, opts.Package.Version)

	// Sources are canonicalized, so relative fallbacks are computed against the canonical directory too
	manifestDir := opts.ManifestDir
	if canonical, err := filepath.EvalSymlinks(manifestDir); err == nil {
		manifestDir = canonical
	}

	return &Session{
		packageID: packageID,
		support:   opts.Support,
		primary:   opts.Primary,
		registry:  registry.New(opts.CacheDir, packageID),
		resolver:  assets.NewResolver(opts.ManifestDir, opts.Remote),
		locator: &bundle.Locator{
			ServeRoot:   cfg.ServeRoot(),
			Support:     opts.Support,
			ManifestDir: manifestDir,
			Bundler:     bundle.NewBundler(opts.Remote),
		},
		logger: logging.GlobalLogger.NewSubLogger("module", logging.DECLARE_SERVICE),
	}
}

// PackageID returns the registry identifier of the session's package.
func (s *Session) PackageID() string {
	return s.packageID
}

// Records returns the assets declared in this session, each once, in declaration order. They are the records
// embedded into the package's object file.
func (s *Session) Records() []assets.AssetType {
	return append([]assets.AssetType(nil), s.records...)
}

// Init clears the package registry once per session. Declarations call it implicitly; Apply calls it up front so that
// a package whose declarations were all removed is left with an empty registry.
func (s *Session) Init() error {
	if s.initialized {
		return nil
	}
	if err := s.registry.Clear(); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// register records an asset in the registry and the session. The registry is cleared on first use.
func (s *Session) register(asset assets.AssetType) (assets.AssetType, error) {
	if err := s.Init(); err != nil {
		return assets.AssetType{}, err
	}

	registered, _, err := s.registry.Add(asset)
	if err != nil {
		return assets.AssetType{}, err
	}
	for _, existing := range s.records {
		if existing.SameDeclaration(registered) {
			return registered, nil
		}
	}
	s.records = append(s.records, registered)
	return registered, nil
}

// DeclareFile declares a file asset. Nil options select the defaults for the file's extension.
func (s *Session) DeclareFile(ctx context.Context, spec string, options *assets.Options, urlEncoded bool) (Declaration, error) {
	file, err := s.resolver.NewFileAsset(ctx, spec, options, urlEncoded)
	if err != nil {
		return Declaration{}, err
	}
	asset, err := s.register(assets.NewFile(file))
	if err != nil {
		return Declaration{}, err
	}

	decl := Declaration{Asset: asset}
	decl.Served, err = s.locator.ServedLocation(ctx, *asset.File)
	if err != nil {
		return Declaration{}, err
	}
	s.degrade(&decl, asset.File.Location.Source.String())
	s.logger.Debug("Declared ", colors.Bold, asset, colors.Reset, " served at ", decl.Served)
	return decl, nil
}

// DeclareImage declares an image asset.
func (s *Session) DeclareImage(ctx context.Context, spec string, options assets.ImageOptions, urlEncoded bool) (Declaration, error) {
	opts := assets.NewImageOptions(options)
	return s.DeclareFile(ctx, spec, &opts, urlEncoded)
}

// DeclareVideo declares a video asset.
func (s *Session) DeclareVideo(ctx context.Context, spec string, options assets.VideoOptions, urlEncoded bool) (Declaration, error) {
	opts := assets.NewVideoOptions(options)
	return s.DeclareFile(ctx, spec, &opts, urlEncoded)
}

// DeclareFont declares a font asset.
func (s *Session) DeclareFont(ctx context.Context, spec string, options assets.FontOptions, urlEncoded bool) (Declaration, error) {
	opts := assets.NewFontOptions(options)
	return s.DeclareFile(ctx, spec, &opts, urlEncoded)
}

// DeclareCss declares a stylesheet.
func (s *Session) DeclareCss(ctx context.Context, spec string, options assets.CssOptions, urlEncoded bool) (Declaration, error) {
	opts := assets.NewCssOptions(options)
	return s.DeclareFile(ctx, spec, &opts, urlEncoded)
}

// DeclareJson declares a JSON document.
func (s *Session) DeclareJson(ctx context.Context, spec string, options assets.JsonOptions, urlEncoded bool) (Declaration, error) {
	opts := assets.NewJsonOptions(options)
	return s.DeclareFile(ctx, spec, &opts, urlEncoded)
}

// DeclareGoogleFont declares a Google Fonts stylesheet as a minified remote css file.
func (s *Session) DeclareGoogleFont(ctx context.Context, font assets.GoogleFont) (Declaration, error) {
	return s.DeclareCss(ctx, font.URL(), assets.CssOptions{Minify: true}, false)
}

// DeclareFolder declares a folder copied as a whole.
func (s *Session) DeclareFolder(spec string) (Declaration, error) {
	folder, err := s.resolver.NewFolderAsset(spec)
	if err != nil {
		return Declaration{}, err
	}
	asset, err := s.register(assets.NewFolder(folder))
	if err != nil {
		return Declaration{}, err
	}

	decl := Declaration{Asset: asset, Served: s.locator.FolderLocation(*asset.Folder)}
	s.degrade(&decl, asset.Folder.Location.Source.String())
	return decl, nil
}

// DeclareTailwind declares utility classes. The classes are served unchanged.
func (s *Session) DeclareTailwind(classes string) (Declaration, error) {
	asset, err := s.register(assets.NewTailwind(classes))
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{Asset: asset, Served: classes}, nil
}

// DeclareMetadata declares an opaque key/value pair. The value is served unchanged.
func (s *Session) DeclareMetadata(key string, value string) (Declaration, error) {
	asset, err := s.register(assets.NewMetadata(key, value))
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{Asset: asset, Served: value}, nil
}

// degrade marks a declaration of a dependency built without support. The primary package silently uses its
// relative path, a dependency gets a SupportError carrying that same fallback.
func (s *Session) degrade(decl *Declaration, source string) {
	if s.support || s.primary {
		return
	}
	decl.Err = &SupportError{
		Kind:     ExternalPackageUnsupported,
		Package:  s.packageID,
		Source:   source,
		Fallback: decl.Served,
	}
	s.logger.Warn(decl.Err.Error())
}

// Apply declares every entry of a manifest in order. Hard failures stop the declaration and are returned with the
// position of the entry; support degradations are reported through each Declaration's Err.
func (s *Session) Apply(ctx context.Context, manifest *project.Manifest) ([]Declaration, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	decls := make([]Declaration, 0, len(manifest.Assets))
	for i, entry := range manifest.Assets {
		decl, err := s.apply(ctx, entry)
		if err != nil {
			label := entry.Name
			if label == "" {
				label = entry.Kind
			}
			return nil, fmt.Errorf("asset %d (%s): %w", i, label, err)
		}
		decl.Name = entry.Name
		decls = append(decls, decl)
	}
	return decls, nil
}

func (s *Session) apply(ctx context.Context, entry project.Declaration) (Declaration, error) {
	switch entry.Kind {
	case project.DeclareTailwind:
		return s.DeclareTailwind(entry.Classes)
	case project.DeclareMetadata:
		return s.DeclareMetadata(entry.Key, entry.Value)
	case project.DeclareFolder:
		return s.DeclareFolder(entry.Source)
	case project.DeclareGoogleFont:
		return s.DeclareGoogleFont(ctx, entry.GoogleFont())
	default:
		opts, err := entry.Options()
		if err != nil {
			return Declaration{}, err
		}
		return s.DeclareFile(ctx, entry.Source, opts, entry.UrlEncoded)
	}
}
