package cmd

import (
	"fmt"

	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/collector"
	"github.com/spf13/cobra"
)

// collectCmd represents the command provider for registry collection
var collectCmd = &cobra.Command{
	Use:   "collect [dir]",
	Short: "Collects the assets of a project and its dependencies",
	Long: `Collects the assets declared by a project and every dependency listed in its manganis.lock.

The registries written by the declare command are read for each package reachable from the project, and the
combined manifest is written as JSON.`,
	Args:              cmdValidateCollectArgs,
	ValidArgsFunction: cmdValidDeclareArgs,
	RunE:              cmdRunCollect,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	addCollectFlags()
	rootCmd.AddCommand(collectCmd)
}

// cmdValidateCollectArgs makes sure that at most one project directory is provided
func cmdValidateCollectArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("collect accepts at most one project directory")
		cmdLogger.Error("Failed to validate args to the collect command", err)
		return err
	}
	return nil
}

// cmdRunCollect collects the registries of the project's dependency graph
func cmdRunCollect(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	opts, err := collectOptionsFromFlags(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the collect command", err)
		return err
	}

	manifest, failures, err := collector.LoadFromProject(dir, opts)
	if err != nil {
		cmdLogger.Error("Failed to collect assets", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	if strict && len(failures) > 0 {
		return exitcodes.NewErrorWithExitCode(fmt.Errorf("%d packages could not be collected", len(failures)), exitcodes.ExitCodeCollectionError)
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	return writeManifestOutput(cmd, output, manifest)
}
