package cmd

import (
	"fmt"

	"github.com/crytic/manganis/version"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command that displays build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Long: `Print the version and build information of manganis.

This includes the semantic version, the git commit hash and the Go version used to compile the binary. The version
and commit are part of every unique asset name, so upgrading manganis renames all assets.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.GetInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
