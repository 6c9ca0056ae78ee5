package cmd

import (
	"fmt"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/spf13/cobra"
)

// bundleCmd represents the command provider for materialization
var bundleCmd = &cobra.Command{
	Use:   "bundle <manifest.json>...",
	Short: "Materializes collected assets into an output directory",
	Long: `Processes the assets of one or more collected manifests into an output directory.

Every file is written under its unique name, folders are copied as a whole and the tailwind classes of all packages
are compiled into a single stylesheet.`,
	Args:              cmdValidateBundleArgs,
	ValidArgsFunction: cmdValidBundleArgs,
	RunE:              cmdRunBundle,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	bundleCmd.Flags().SortFlags = false
	addBundleFlags(bundleCmd)
	addCacheFlags(bundleCmd)
	rootCmd.AddCommand(bundleCmd)
}

// cmdValidBundleArgs completes manifest files
func cmdValidBundleArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// cmdValidateBundleArgs makes sure that at least one manifest is provided
func cmdValidateBundleArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("bundle needs at least one manifest")
		cmdLogger.Error("Failed to validate args to the bundle command", err)
		return err
	}
	return nil
}

// cmdRunBundle merges the given manifests and materializes them
func cmdRunBundle(cmd *cobra.Command, args []string) error {
	manifests := make([]assets.AssetManifest, 0, len(args))
	for _, path := range args {
		manifest, err := bundle.ReadManifest(path)
		if err != nil {
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
		}
		manifests = append(manifests, manifest)
	}

	cacheDir, err := cacheDirFromFlags(cmd)
	if err != nil {
		return err
	}
	client, release, err := newRemoteClient(cmd, cacheDir)
	if err != nil {
		return err
	}
	defer release()

	return materialize(cmd.Context(), cmd, bundle.MergeManifests(manifests...), client)
}
