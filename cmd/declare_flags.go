package cmd

import (
	"github.com/crytic/manganis/declare"
	"github.com/spf13/cobra"
)

// addDeclareFlags adds the various flags for the declare command
func addDeclareFlags() {
	// Prevent alphabetical sorting of usage message
	declareCmd.Flags().SortFlags = false

	declareCmd.Flags().Bool("embed", false, "generate a cgo file that embeds the asset records into the binary")
	declareCmd.Flags().String("output-dir", "", "directory the generated files are written to (default is the package directory)")
	declareCmd.Flags().Bool("primary", false, "treat the package as the one being built (default is detected from the working directory)")
	declareCmd.Flags().Bool("support", false, "assume the assets will be collected (default is $MANGANIS_SUPPORT)")
	addCacheFlags(declareCmd)
}

// updateDeclareOptionsWithFlags will update the given options with any CLI arguments that were provided to the declare
// command
func updateDeclareOptionsWithFlags(cmd *cobra.Command, opts *declare.Options) error {
	var err error

	if opts.Embed, err = cmd.Flags().GetBool("embed"); err != nil {
		return err
	}
	if opts.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return err
	}
	if cmd.Flags().Changed("primary") {
		if opts.Primary, err = cmd.Flags().GetBool("primary"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("support") {
		if opts.Support, err = cmd.Flags().GetBool("support"); err != nil {
			return err
		}
	}
	return nil
}
