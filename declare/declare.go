// Package declare runs the declaration step of a package: it resolves the assets listed in manganis.toml, records
// them in the package registry and generates the files that expose their served locations to Go code and embed their
// records into the compiled object.
package declare

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/linker"
	"github.com/crytic/manganis/project"
	"github.com/crytic/manganis/utils"
)

// Options configures Run.
type Options struct {
	// CacheDir holds the package registries.
	CacheDir string
	// Config decides the serve root. Nil selects the defaults of the target platform.
	Config *config.Config
	// Support reports whether a tool will collect and materialize the assets.
	Support bool
	// Primary reports whether the package is the one being built.
	Primary bool
	// Embed writes the cgo records file next to the generated Go file.
	Embed bool
	// OutputDir is where the generated files are written. It defaults to the manifest directory.
	OutputDir string
	// Remote looks up remote sources. It may be nil.
	Remote assets.RemoteInspector
}

// Result describes a completed declaration step.
type Result struct {
	Declarations []Declaration
	Records      []assets.AssetType
	GoFile       string
	CFile        string
}

// Degraded returns the support errors of the declarations that fell back to a best-effort location.
func (r *Result) Degraded() []*SupportError {
	var degraded []*SupportError
	for _, decl := range r.Declarations {
		var supportErr *SupportError
		if errors.As(decl.Err, &supportErr) {
			degraded = append(degraded, supportErr)
		}
	}
	return degraded
}

// Run declares every asset of manifest and writes the generated files.
func Run(ctx context.Context, manifest *project.Manifest, opts Options) (*Result, error) {
	session := NewSession(SessionOptions{
		Package:     manifest.Package,
		ManifestDir: manifest.Dir,
		CacheDir:    opts.CacheDir,
		Config:      opts.Config,
		Support:     opts.Support,
		Primary:     opts.Primary,
		Remote:      opts.Remote,
	})

	decls, err := session.Apply(ctx, manifest)
	if err != nil {
		return nil, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = manifest.Dir
	}
	if err = utils.MakeDirectory(outputDir); err != nil {
		return nil, err
	}

	result := &Result{Declarations: decls, Records: session.Records()}
	symbolPrefix := session.PackageID()

	goSource, err := GenerateGoSource(manifest.Package.GoPackage, decls, symbolPrefix, opts.Embed)
	if err != nil {
		return nil, err
	}
	result.GoFile = filepath.Join(outputDir, GoFileName)
	if err = writeFile(result.GoFile, goSource); err != nil {
		return nil, err
	}

	if opts.Embed {
		cSource, err := linker.GenerateCSource(result.Records, symbolPrefix)
		if err != nil {
			return nil, err
		}
		result.CFile = filepath.Join(outputDir, CFileName)
		if err = writeFile(result.CFile, []byte(cSource)); err != nil {
			return nil, err
		}
	}

	session.logger.Info("Declared ", len(result.Records), " assets of ", session.PackageID())
	return result, nil
}

func writeFile(path string, data []byte) error {
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
