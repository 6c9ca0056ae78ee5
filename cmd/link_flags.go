package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addLinkFlags adds the various flags for the link command
func addLinkFlags() {
	linkCmd.Flags().String("linker", "", "the real linker the arguments are forwarded to")
	linkCmd.Flags().String("output", DefaultManifestFilename, "path of the manifest receiving the scraped assets")
}

// linkSettingsFromFlags returns the real linker and the manifest path of the link command
func linkSettingsFromFlags(cmd *cobra.Command) (string, string, error) {
	linker, err := cmd.Flags().GetString("linker")
	if err != nil {
		return "", "", err
	}
	if linker == "" {
		return "", "", fmt.Errorf("link needs the real linker to forward to (--linker)")
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", "", err
	}
	return linker, output, nil
}
