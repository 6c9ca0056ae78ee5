package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/crytic/manganis/bundle"
	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/scraper"
	"github.com/crytic/manganis/utils"
	"github.com/spf13/cobra"
)

// linkLogger is the logger used by the linker intercept.
var linkLogger = logging.GlobalLogger.NewSubLogger("module", logging.LINKER_SERVICE)

// linkCmd represents the command provider for the linker intercept
var linkCmd = &cobra.Command{
	Use:   "link --linker <linker> --output <manifest> -- <linker args>...",
	Short: "Intercepts a link to scrape the assets of the linked objects",
	Long: `Scrapes the asset records of the object files handed to the linker, writes them to a manifest and runs the
real linker with the original arguments. The build command installs it through a shim passed to go build as the
external linker; it is not meant to be run by hand.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          cmdRunLink,
	Hidden:        true,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addLinkFlags()
	rootCmd.AddCommand(linkCmd)
}

// cmdRunLink scrapes the linker arguments, records the assets and forwards to the real linker. The exit status of the
// real linker is passed through.
func cmdRunLink(cmd *cobra.Command, args []string) error {
	linker, output, err := linkSettingsFromFlags(cmd)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	intercept, err := scraper.ParseLinkerArgs(args, cwd)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
	}
	linkLogger.Debug("Linking in ", intercept.WorkingDir, " with ", len(intercept.ObjectFiles), " object files")

	scraped, err := scraper.ScrapeFiles(intercept.ObjectFiles)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
	}

	// A build may link more than once, the records of every link are kept
	manifest := scraped
	if _, statErr := os.Stat(output); statErr == nil {
		previous, err := bundle.ReadManifest(output)
		if err != nil {
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
		}
		manifest = bundle.MergeManifests(previous, scraped)
	}
	if err = bundle.WriteManifest(output, manifest); err != nil {
		return err
	}
	linkLogger.Debug("Recorded ", scraped.Len(), " assets to ", output)

	linkCommand := exec.CommandContext(cmd.Context(), linker, intercept.ForwardArgs...)
	err = utils.RunCommandPassthrough(linkCommand)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitcodes.NewErrorWithExitCode(nil, exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("failed to run the linker %s: %w", linker, err)
	}
	return nil
}
