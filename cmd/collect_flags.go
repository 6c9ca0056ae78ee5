package cmd

import (
	"github.com/crytic/manganis/collector"
	"github.com/spf13/cobra"
)

// addCollectFlags adds the various flags for the collect command
func addCollectFlags() {
	collectCmd.Flags().SortFlags = false

	collectCmd.Flags().String("output", DefaultManifestFilename, "path of the collected manifest, - writes to stdout")
	collectCmd.Flags().String("bin", "", "binary target of the project (default is package.bin of its manganis.toml)")
	collectCmd.Flags().Bool("strict", false, "fail when the registry of any package cannot be read")
	collectCmd.Flags().String("cache-dir", "", "directory holding the package registries")
}

// collectOptionsFromFlags builds collector options from the flags of cmd
func collectOptionsFromFlags(cmd *cobra.Command) (collector.Options, error) {
	var opts collector.Options
	var err error

	if opts.CacheDir, err = cacheDirFromFlags(cmd); err != nil {
		return opts, err
	}
	if opts.RootBin, err = cmd.Flags().GetString("bin"); err != nil {
		return opts, err
	}
	return opts, nil
}
