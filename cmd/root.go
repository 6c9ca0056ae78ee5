package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/logging/colors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cmdLogger is the logger used by the cmd package.
var cmdLogger = logging.GlobalLogger.NewSubLogger("module", logging.CLI_SERVICE)

// logFile is the structured log file opened by --log-file, if any.
var logFile *os.File

var rootCmd = &cobra.Command{
	Use:   "manganis",
	Short: "A static asset collector for Go applications",
	Long: `manganis declares, collects and bundles the static assets of a Go application and its dependencies.

Assets are declared per package in manganis.toml. They are recorded in a per-package registry and, optionally,
embedded into the compiled binary, from where they are collected after the build and materialized into a
content-addressed asset directory.`,
	PersistentPreRunE:  cmdRootPreRun,
	PersistentPostRunE: cmdRootPostRun,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func init() {
	// Logging and environment flags are shared by every command
	rootCmd.PersistentFlags().String("log-level", zerolog.InfoLevel.String(), "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "path of a file receiving structured JSON logs")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored console output")
	rootCmd.PersistentFlags().String("env-file", DefaultEnvFilename, "path of a dotenv file loaded before the configuration is resolved")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// cmdRootPreRun loads the environment file and configures the global logger before any command runs.
func cmdRootPreRun(cmd *cobra.Command, args []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err = loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", levelName, err)
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return err
	}
	if noColor {
		colors.DisableColor()
	}

	logging.GlobalLogger.SetLevel(level)
	logging.GlobalLogger.EnableConsole(os.Stderr)

	logPath, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	if logPath != "" {
		logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		logging.GlobalLogger.AddWriter(logFile, logging.STRUCTURED)
	}
	return nil
}

// cmdRootPostRun closes the log file opened by cmdRootPreRun.
func cmdRootPostRun(cmd *cobra.Command, args []string) error {
	if logFile == nil {
		return nil
	}
	logging.GlobalLogger.RemoveWriter(logFile)
	err := logFile.Close()
	logFile = nil
	return err
}

// loadEnvFile loads a dotenv file without overriding variables that are already set. A missing default file is
// ignored, a missing file named explicitly is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		cmdLogger.Debug("Loaded environment from ", path)
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("cannot load environment file %s: %w", path, err)
}
