package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// buildSettings holds the settings of the build command
type buildSettings struct {
	goExecutable   string
	linker         string
	output         string
	manifestOutput string
	cacheDir       string
	generate       bool
}

// addBuildFlags adds the various flags for the build command
func addBuildFlags() {
	buildCmd.Flags().SortFlags = false

	buildCmd.Flags().StringP("output", "o", "", "path of the built executable, passed to go build -o")
	buildCmd.Flags().String("manifest", "", "also write the collected manifest to this path")
	buildCmd.Flags().Bool("generate", true, "run go generate before building so that declarations see asset support")
	buildCmd.Flags().String("go", "go", "go command used to generate and build")
	buildCmd.Flags().String("linker", "", "the real external linker (default is $CC or cc)")
	addBundleFlags(buildCmd)
	addCacheFlags(buildCmd)
}

// buildSettingsFromFlags reads the settings of the build command
func buildSettingsFromFlags(cmd *cobra.Command) (*buildSettings, error) {
	settings := &buildSettings{}
	var err error

	if settings.goExecutable, err = cmd.Flags().GetString("go"); err != nil {
		return nil, err
	}
	if settings.linker, err = cmd.Flags().GetString("linker"); err != nil {
		return nil, err
	}
	if settings.linker == "" {
		settings.linker = os.Getenv("CC")
	}
	if settings.linker == "" {
		settings.linker = "cc"
	}
	if settings.output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if settings.manifestOutput, err = cmd.Flags().GetString("manifest"); err != nil {
		return nil, err
	}
	if settings.generate, err = cmd.Flags().GetBool("generate"); err != nil {
		return nil, err
	}
	if settings.cacheDir, err = cacheDirFromFlags(cmd); err != nil {
		return nil, err
	}
	return settings, nil
}
