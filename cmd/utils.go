package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/assets/remote"
	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DefaultRemoteTTL is how long looked up remote metadata is trusted across runs.
const DefaultRemoteTTL = 24 * time.Hour

// cmdValidFlagArgs returns the flags that have not been used yet, for dynamic completion of commands that take no
// file arguments.
func cmdValidFlagArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var unusedFlags []string

	// The "--" prefix tells the shell these are flags rather than positional arguments
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

// addCacheFlags adds the flags that locate the asset cache and configure remote lookups.
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache-dir", "", "directory holding the package registries (default is $"+registry.CacheDirEnv+" or the user cache directory)")
	cmd.Flags().Duration("remote-ttl", DefaultRemoteTTL, "how long remote asset metadata is reused across runs, 0 keeps it forever")
	cmd.Flags().Bool("no-remote-cache", false, "look up remote assets on every run instead of reusing stored metadata")
}

// cacheDirFromFlags returns the cache directory named by --cache-dir, or the default one.
func cacheDirFromFlags(cmd *cobra.Command) (string, error) {
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return "", err
	}
	if cacheDir != "" {
		return filepath.Abs(cacheDir)
	}
	return registry.DefaultCacheDir()
}

// newRemoteClient creates the remote asset client configured by the cache flags. The returned function releases the
// persistent metadata store.
func newRemoteClient(cmd *cobra.Command, cacheDir string) (*remote.Client, func(), error) {
	noStore, err := cmd.Flags().GetBool("no-remote-cache")
	if err != nil {
		return nil, nil, err
	}
	ttl, err := cmd.Flags().GetDuration("remote-ttl")
	if err != nil {
		return nil, nil, err
	}

	var store *remote.Store
	release := func() {}
	if !noStore {
		store, err = remote.OpenStore(cacheDir, ttl)
		if err != nil {
			// Another build may hold the store, lookups still work without it
			cmdLogger.Warn("Remote asset metadata will not be reused", err)
			store = nil
		} else {
			release = func() {
				if err := store.Close(); err != nil {
					cmdLogger.Warn("Failed to close the remote metadata store", err)
				}
			}
		}
	}

	client, err := remote.NewClient(remote.Options{Store: store})
	if err != nil {
		release()
		return nil, nil, err
	}
	return client, release, nil
}

// addBundleFlags adds the flags that configure materialization.
func addBundleFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", DefaultOutputDirectory, "directory the processed assets are written to")
	cmd.Flags().Bool("gzip", false, "write a precompressed .gz sidecar next to every text asset")
	cmd.Flags().Int("concurrency", 0, "number of assets processed at once (default is the number of CPUs)")
	cmd.Flags().Bool("tailwind", true, "generate a stylesheet for the collected tailwind classes")
	cmd.Flags().Bool("preflight", false, "include the tailwind base styles in the generated stylesheet")
	cmd.Flags().String("tailwind-bin", "", "tailwind CLI executable (default is tailwindcss from the PATH)")
}

// updateBundlerWithFlags applies the bundle flags to bundler.
func updateBundlerWithFlags(cmd *cobra.Command, bundler *bundle.Bundler) error {
	var err error

	if cmd.Flags().Changed("gzip") {
		if bundler.Gzip, err = cmd.Flags().GetBool("gzip"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("concurrency") {
		if bundler.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("tailwind-bin") {
		executable, err := cmd.Flags().GetString("tailwind-bin")
		if err != nil {
			return err
		}
		bundler.Tailwind = bundle.NewCLIGenerator(executable)
	}
	return nil
}

// materialize processes manifest into the output directory configured by the bundle flags and generates the tailwind
// stylesheet. Failures are returned with ExitCodeMaterializationError.
func materialize(ctx context.Context, cmd *cobra.Command, manifest assets.AssetManifest, remoteClient assets.RemoteInspector) error {
	bundler := bundle.NewBundler(remoteClient)
	if err := updateBundlerWithFlags(cmd, bundler); err != nil {
		return err
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}

	cmdLogger.Info("Bundling ", manifest.Len(), " assets into ", colors.Bold, outputDir, colors.Reset)
	if err = bundler.CopyStaticAssets(ctx, manifest, outputDir); err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeMaterializationError)
	}

	tailwind, err := cmd.Flags().GetBool("tailwind")
	if err != nil {
		return err
	}
	if !tailwind {
		return nil
	}
	preflight, err := cmd.Flags().GetBool("preflight")
	if err != nil {
		return err
	}

	warnings, err := bundler.WriteTailwindCSS(ctx, manifest, filepath.Join(outputDir, DefaultTailwindFilename), preflight)
	for _, warning := range warnings {
		cmdLogger.Warn("tailwind: ", warning)
	}
	if errors.Is(err, bundle.ErrTailwindUnavailable) {
		cmdLogger.Warn("Skipping the tailwind stylesheet", err)
		return nil
	}
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeMaterializationError)
	}
	return nil
}

// writeManifestOutput writes manifest to path, or to stdout when path is "-".
func writeManifestOutput(cmd *cobra.Command, path string, manifest assets.AssetManifest) error {
	if path == "-" {
		return bundle.EncodeManifest(cmd.OutOrStdout(), manifest)
	}
	if err := bundle.WriteManifest(path, manifest); err != nil {
		return err
	}
	cmdLogger.Info("Wrote ", manifest.Len(), " assets to ", colors.Bold, path, colors.Reset)
	return nil
}
