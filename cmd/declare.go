package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/declare"
	"github.com/crytic/manganis/logging/colors"
	"github.com/crytic/manganis/project"
	"github.com/spf13/cobra"
)

// declareCmd represents the command provider for the declaration step
var declareCmd = &cobra.Command{
	Use:   "declare [dir]",
	Short: "Declares the assets of a package",
	Long: `Declares the assets listed in the manganis.toml of a package.

The assets are recorded in the package registry and their served locations are written to a generated Go file. With
--embed, a cgo file placing the asset records into the binary is generated as well. The command is meant to run
through go:generate:

  //go:generate manganis declare --embed`,
	Args:              cmdValidateDeclareArgs,
	ValidArgsFunction: cmdValidDeclareArgs,
	RunE:              cmdRunDeclare,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	addDeclareFlags()
	rootCmd.AddCommand(declareCmd)
}

// cmdValidDeclareArgs completes the package directory argument
func cmdValidDeclareArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveFilterDirs
	}
	return cmdValidFlagArgs(cmd, args, toComplete)
}

// cmdValidateDeclareArgs makes sure that at most one package directory is provided
func cmdValidateDeclareArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("declare accepts at most one package directory")
		cmdLogger.Error("Failed to validate args to the declare command", err)
		return err
	}
	return nil
}

// cmdRunDeclare runs the declaration step of the package found at or above the given directory
func cmdRunDeclare(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	manifest, err := project.FindAndLoad(dir)
	if err != nil {
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}
	if manifest == nil {
		err = fmt.Errorf("no %s found in %s or any parent directory", project.ManifestFileName, dir)
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}

	cfg, err := config.LoadCurrent()
	if err != nil {
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}

	cacheDir, err := cacheDirFromFlags(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}

	opts := declare.Options{
		CacheDir: cacheDir,
		Config:   cfg,
		Support:  config.SupportEnabled(),
		Primary:  isPrimaryPackage(manifest),
	}
	if err = updateDeclareOptionsWithFlags(cmd, &opts); err != nil {
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}

	client, release, err := newRemoteClient(cmd, cacheDir)
	if err != nil {
		cmdLogger.Error("Failed to run the declare command", err)
		return err
	}
	defer release()
	opts.Remote = client

	result, err := declare.Run(cmd.Context(), manifest, opts)
	if err != nil {
		cmdLogger.Error("Failed to declare the assets of ", manifest.Package.Name, err)
		return err
	}

	for _, decl := range result.Declarations {
		if decl.Name != "" {
			cmdLogger.Debug(colors.Bold, decl.Name, colors.Reset, " = ", decl.Served)
		}
	}
	cmdLogger.Info("Generated ", colors.Bold, result.GoFile, colors.Reset)
	return nil
}

// isPrimaryPackage reports whether the package is the one being built. The build command names the project directory
// through the environment; a declaration run directly by a developer is always for their own package.
func isPrimaryPackage(manifest *project.Manifest) bool {
	projectDir, ok := os.LookupEnv(config.PrimaryDirEnv)
	if !ok || projectDir == "" {
		return true
	}
	rel, err := filepath.Rel(projectDir, manifest.Dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
