package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/utils"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// bundleLogger is the logger used by the bundle package.
var bundleLogger = logging.GlobalLogger.NewSubLogger("module", logging.BUNDLE_SERVICE)

// Bundler materializes a collected manifest into an output directory.
type Bundler struct {
	// Remote downloads remote sources. It may be nil when the manifest only holds local sources.
	Remote assets.RemoteInspector

	// Processors maps every options kind to its processor.
	Processors map[assets.OptionsKind]Processor

	// Gzip writes a ".gz" sidecar next to every text output.
	Gzip bool

	// Concurrency bounds the number of files processed at once. Zero selects the number of CPUs.
	Concurrency int

	// Tailwind generates stylesheets from utility classes.
	Tailwind TailwindGenerator
}

// NewBundler creates a Bundler with the default processors and tailwind generator.
func NewBundler(remote assets.RemoteInspector) *Bundler {
	return &Bundler{
		Remote:     remote,
		Processors: DefaultProcessors(),
		Tailwind:   NewCLIGenerator(""),
	}
}

// CopyStaticAssets processes every file asset of the manifest into outputDir, named by its unique name, and copies
// every folder asset. Assets sharing a unique name are processed once. The first failure cancels the remaining work
// and is returned. Outputs are staged in a sibling directory and only moved into outputDir once every asset succeeded,
// so a failed run leaves outputDir as it was.
func (b *Bundler) CopyStaticAssets(ctx context.Context, manifest assets.AssetManifest, outputDir string) error {
	outputDir = filepath.Clean(outputDir)
	parent := filepath.Dir(outputDir)
	if err := utils.MakeDirectory(parent); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(outputDir)+".staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory for %s: %w", outputDir, err)
	}
	defer os.RemoveAll(staging)
	if err = os.Chmod(staging, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory for %s: %w", outputDir, err)
	}

	count, err := b.stageAssets(ctx, manifest, staging)
	if err != nil {
		return err
	}
	if err = utils.MoveDirectoryContents(staging, outputDir); err != nil {
		return fmt.Errorf("failed to move assets into %s: %w", outputDir, err)
	}
	bundleLogger.Info("Copied ", colors.Bold, count, colors.Reset, " assets to ", outputDir)
	return nil
}

// stageAssets writes every asset of the manifest into outputDir and returns the number of distinct assets written.
func (b *Bundler) stageAssets(ctx context.Context, manifest assets.AssetManifest, outputDir string) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	seen := make(map[string]struct{})
	for _, file := range manifest.Files() {
		if _, ok := seen[file.Location.UniqueName]; ok {
			continue
		}
		seen[file.Location.UniqueName] = struct{}{}
		g.Go(func() error {
			return b.ProcessFile(ctx, file, outputDir)
		})
	}
	for _, folder := range manifest.Folders() {
		if _, ok := seen[folder.Location.UniqueName]; ok {
			continue
		}
		seen[folder.Location.UniqueName] = struct{}{}
		g.Go(func() error {
			target := filepath.Join(outputDir, folder.Location.UniqueName)
			if err := utils.CopyDirectory(folder.Location.Source.Path, target, true); err != nil {
				return fmt.Errorf("failed to copy folder %s: %w", folder.Location.Source, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(seen), nil
}

// ProcessFile processes a single file asset into outputDir.
func (b *Bundler) ProcessFile(ctx context.Context, file assets.FileAsset, outputDir string) error {
	output, err := b.Render(ctx, file)
	if err != nil {
		return err
	}

	target := filepath.Join(outputDir, file.Location.UniqueName)
	bundleLogger.Debug("Writing ", file.Location.Source, " to ", target)
	err = utils.WriteFileAtomic(target, 0644, func(w io.Writer) error {
		_, err := w.Write(output)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	if b.Gzip && isCompressible(file.Options.Extension()) {
		if err = writeGzip(target+".gz", output); err != nil {
			return fmt.Errorf("failed to write %s.gz: %w", target, err)
		}
	}
	return nil
}

// Render reads a file asset's source and returns its processed contents.
func (b *Bundler) Render(ctx context.Context, file assets.FileAsset) ([]byte, error) {
	processors := b.Processors
	if processors == nil {
		processors = DefaultProcessors()
	}
	processor, ok := processors[file.Options.Kind]
	if !ok {
		return nil, fmt.Errorf("no processor for %s assets", file.Options.Kind)
	}

	input, err := ReadSource(ctx, file.Location.Source, b.Remote)
	if err != nil {
		return nil, err
	}
	output, err := processor.Process(input, file.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", file.Location.Source, err)
	}
	return output, nil
}

// ReadSource returns the contents of a source. Remote sources are downloaded through remote.
func ReadSource(ctx context.Context, source assets.Source, remote assets.RemoteInspector) ([]byte, error) {
	if source.IsLocal() {
		data, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source.Path, err)
		}
		return data, nil
	}
	if remote == nil {
		return nil, fmt.Errorf("cannot download %s without a remote client", source.URL)
	}
	return remote.Fetch(ctx, source.URL)
}

// isCompressible reports whether outputs with the extension are text and benefit from a gzip sidecar.
func isCompressible(extension string) bool {
	mime := assets.MimeForExtension(extension)
	switch {
	case strings.HasPrefix(mime, "text/"):
		return true
	case mime == "application/json", mime == "application/javascript", mime == "image/svg+xml", mime == "application/wasm":
		return true
	}
	return false
}

// writeGzip writes data compressed to path.
func writeGzip(path string, data []byte) error {
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		if _, err = zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
}
