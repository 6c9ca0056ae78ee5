package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/collector"
	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/project"
	"github.com/crytic/manganis/scraper"
	"github.com/crytic/manganis/utils"
	"github.com/spf13/cobra"
)

// buildCmd represents the command provider for a full build
var buildCmd = &cobra.Command{
	Use:   "build [packages]...",
	Short: "Builds a Go program and bundles its assets",
	Long: `Builds a Go program with asset support and materializes every asset it declares.

The declarations are regenerated with go generate, the program is built with go build using the linker intercept,
and the assets found in the linked objects and in the registries of the project's dependency graph are bundled into
the output directory. Remaining arguments are passed to go build as packages.`,
	Args:              cobra.ArbitraryArgs,
	ValidArgsFunction: cmdValidFlagArgs,
	RunE:              cmdRunBuild,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	addBuildFlags()
	rootCmd.AddCommand(buildCmd)
}

// cmdRunBuild runs go generate and go build with asset support, then collects and bundles the assets
func cmdRunBuild(cmd *cobra.Command, args []string) error {
	settings, err := buildSettingsFromFlags(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the build command", err)
		return err
	}
	packages := args
	if len(packages) == 0 {
		packages = []string{"."}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	// Every declaration step and the link run below see the support marker
	guard := config.NewSupportGuard()
	defer guard.Release()

	workDir, err := os.MkdirTemp("", "manganis-build-")
	if err != nil {
		return err
	}
	defer func() {
		_ = utils.DeleteDirectory(workDir)
	}()

	if settings.generate {
		generate := exec.CommandContext(cmd.Context(), settings.goExecutable, append([]string{"generate"}, packages...)...)
		generate.Env = append(os.Environ(), config.PrimaryDirEnv+"="+cwd)
		cmdLogger.Info("Declaring assets with ", colors.Bold, "go generate", colors.Reset)
		if err = utils.RunCommandPassthrough(generate); err != nil {
			cmdLogger.Error("go generate failed", err)
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
		}
	}

	manifestPath := filepath.Join(workDir, DefaultManifestFilename)
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	shim, err := scraper.WriteLinkerShim(scraper.ShimOptions{
		Dir:          workDir,
		Executable:   executable,
		GOOS:         runtime.GOOS,
		Linker:       settings.linker,
		ManifestPath: manifestPath,
	})
	if err != nil {
		return err
	}

	goArgs := []string{"build", "-ldflags", buildLdflags(shim, cwd)}
	if settings.output != "" {
		goArgs = append(goArgs, "-o", settings.output)
	}
	goArgs = append(goArgs, packages...)

	build := exec.CommandContext(cmd.Context(), settings.goExecutable, goArgs...)
	build.Env = append(os.Environ(), "CGO_ENABLED=1")
	cmdLogger.Info("Building ", colors.Bold, packages, colors.Reset)
	if err = utils.RunCommandPassthrough(build); err != nil {
		cmdLogger.Error("go build failed", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	linked, err := readLinkedManifest(manifestPath)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
	}
	collected, err := collectProjectAssets(cmd, cwd)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
	}
	manifest := bundle.MergeManifests(linked, collected)

	client, release, err := newRemoteClient(cmd, settings.cacheDir)
	if err != nil {
		return err
	}
	defer release()

	if err = materialize(cmd.Context(), cmd, manifest, client); err != nil {
		return err
	}
	if settings.manifestOutput != "" {
		return writeManifestOutput(cmd, settings.manifestOutput, manifest)
	}
	return nil
}

// buildLdflags returns the linker flags that route the external link through the shim. The working directory travels
// to the intercept as an extra linker argument.
func buildLdflags(shim string, cwd string) string {
	return fmt.Sprintf("-linkmode=external %s %s",
		quoteLdflag("-extld="+shim), quoteLdflag("-extldflags="+scraper.WorkingDirMarker+cwd))
}

// quoteLdflag quotes a whole field for the -ldflags parser of the go command.
func quoteLdflag(value string) string {
	if !strings.ContainsAny(value, " \t'\"") {
		return value
	}
	if !strings.ContainsRune(value, '\'') {
		return "'" + value + "'"
	}
	return `"` + value + `"`
}

// readLinkedManifest reads the manifest written by the linker intercept. A build that did not link anything leaves
// no manifest.
func readLinkedManifest(path string) (assets.AssetManifest, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cmdLogger.Warn("The linker intercept did not run, only registry assets are bundled")
		return assets.AssetManifest{}, nil
	}
	return bundle.ReadManifest(path)
}

// collectProjectAssets collects the registries of the project in dir. Projects without a manganis.toml or a lockfile
// have nothing to collect.
func collectProjectAssets(cmd *cobra.Command, dir string) (assets.AssetManifest, error) {
	manifest, err := project.FindAndLoad(dir)
	if err != nil {
		return assets.AssetManifest{}, err
	}
	if manifest == nil {
		cmdLogger.Debug("No ", project.ManifestFileName, " found, skipping registry collection")
		return assets.AssetManifest{}, nil
	}
	if _, err = project.FindLockfile(manifest.Dir); err != nil {
		cmdLogger.Debug("No ", project.LockFileName, " found, skipping registry collection")
		return assets.AssetManifest{}, nil
	}

	cacheDir, err := cacheDirFromFlags(cmd)
	if err != nil {
		return assets.AssetManifest{}, err
	}
	collected, failures, err := collector.LoadFromProject(manifest.Dir, collector.Options{CacheDir: cacheDir})
	if err != nil {
		return assets.AssetManifest{}, err
	}
	if len(failures) > 0 {
		cmdLogger.Warn(len(failures), " packages could not be collected")
	}
	return collected, nil
}
