package bundle

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/utils"
)

// ErrTailwindUnavailable is returned when no tailwind generator can run.
var ErrTailwindUnavailable = errors.New("tailwindcss is not available")

// TailwindGenerator turns a space-delimited list of utility classes into a stylesheet.
type TailwindGenerator interface {
	Generate(ctx context.Context, classes string, preflight bool) (css string, warnings []string, err error)
}

// CLIGenerator runs the standalone tailwindcss executable.
type CLIGenerator struct {
	Executable string
}

// NewCLIGenerator creates a generator for the executable, or "tailwindcss" from PATH when it is empty.
func NewCLIGenerator(executable string) *CLIGenerator {
	if executable == "" {
		executable = "tailwindcss"
	}
	return &CLIGenerator{Executable: executable}
}

// Generate writes the classes to a content file and asks the tailwind CLI for the matching utilities. The base layer,
// which holds preflight, is only requested when preflight is set.
func (g *CLIGenerator) Generate(ctx context.Context, classes string, preflight bool) (string, []string, error) {
	executable, err := exec.LookPath(g.Executable)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTailwindUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "manganis-tailwind-")
	if err != nil {
		return "", nil, err
	}
	defer os.RemoveAll(dir)

	input := "@tailwind components;\n@tailwind utilities;\n"
	if preflight {
		input = "@tailwind base;\n" + input
	}
	inputPath := filepath.Join(dir, "input.css")
	contentPath := filepath.Join(dir, "content.html")
	outputPath := filepath.Join(dir, "output.css")
	if err = os.WriteFile(inputPath, []byte(input), 0644); err != nil {
		return "", nil, err
	}
	content := "<div class=\"" + html.EscapeString(classes) + "\"></div>\n"
	if err = os.WriteFile(contentPath, []byte(content), 0644); err != nil {
		return "", nil, err
	}

	cmd := exec.CommandContext(ctx, executable, "--input", inputPath, "--content", contentPath, "--output", outputPath)
	_, stderr, _, err := utils.RunCommandWithOutputAndError(cmd)
	if err != nil {
		return "", nil, err
	}

	css, err := os.ReadFile(outputPath)
	if err != nil {
		return "", nil, err
	}
	return string(css), parseTailwindWarnings(stderr), nil
}

// parseTailwindWarnings keeps the stderr lines of the tailwind CLI that are warnings.
func parseTailwindWarnings(stderr []byte) []string {
	var warnings []string
	scanner := bufio.NewScanner(bytes.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(strings.ToLower(line), "warn") {
			warnings = append(warnings, line)
		}
	}
	return warnings
}

// CollectTailwindCSS aggregates the tailwind classes of every package, generates their stylesheet in a single pass and
// minifies it. A manifest without classes yields an empty stylesheet without running the generator.
func (b *Bundler) CollectTailwindCSS(ctx context.Context, manifest assets.AssetManifest, preflight bool) (string, []string, error) {
	classes := strings.Join(strings.Fields(manifest.TailwindClasses()), " ")
	if classes == "" && !preflight {
		return "", nil, nil
	}

	generator := b.Tailwind
	if generator == nil {
		return "", nil, ErrTailwindUnavailable
	}
	css, warnings, err := generator.Generate(ctx, classes, preflight)
	if err != nil {
		return "", warnings, fmt.Errorf("failed to generate tailwind css: %w", err)
	}

	minified, err := MinifyCss([]byte(css))
	if err != nil {
		return "", warnings, fmt.Errorf("failed to minify tailwind css: %w", err)
	}
	for _, warning := range warnings {
		bundleLogger.Warn("tailwind: ", warning)
	}
	return string(minified), warnings, nil
}

// WriteTailwindCSS writes the stylesheet produced by CollectTailwindCSS to path.
func (b *Bundler) WriteTailwindCSS(ctx context.Context, manifest assets.AssetManifest, path string, preflight bool) ([]string, error) {
	css, warnings, err := b.CollectTailwindCSS(ctx, manifest, preflight)
	if err != nil {
		return warnings, err
	}
	err = utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, css)
		return err
	})
	return warnings, err
}
