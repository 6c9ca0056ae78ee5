package cmd

import (
	"fmt"

	"github.com/crytic/manganis/cmd/exitcodes"
	"github.com/crytic/manganis/scraper"
	"github.com/spf13/cobra"
)

// scrapeCmd represents the command provider for binary scraping
var scrapeCmd = &cobra.Command{
	Use:   "scrape <file>...",
	Short: "Recovers the assets embedded in binaries or object files",
	Long: `Recovers the asset records embedded in executables, object files, archives and wasm modules.

ELF, Mach-O (thin and fat), PE/COFF, wasm and ar archives are detected by their magic bytes. Files without an asset
section contribute nothing.`,
	Args:          cmdValidateScrapeArgs,
	RunE:          cmdRunScrape,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	scrapeCmd.Flags().String("output", DefaultManifestFilename, "path of the scraped manifest, - writes to stdout")
	rootCmd.AddCommand(scrapeCmd)
}

// cmdValidateScrapeArgs makes sure that at least one file is provided
func cmdValidateScrapeArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("scrape needs at least one file")
		cmdLogger.Error("Failed to validate args to the scrape command", err)
		return err
	}
	return nil
}

// cmdRunScrape scrapes every file given as argument
func cmdRunScrape(cmd *cobra.Command, args []string) error {
	manifest, err := scraper.ScrapeFiles(args)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeCollectionError)
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	return writeManifestOutput(cmd, output, manifest)
}
