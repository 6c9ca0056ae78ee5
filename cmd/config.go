package cmd

import (
	"fmt"
	"strings"

	"github.com/crytic/manganis/config"
	"github.com/crytic/manganis/logging/colors"
	"github.com/spf13/cobra"
)

// configActions lists the actions of the config command, in the order they are completed
var configActions = []string{"show", "path", "set", "reset"}

// configKeys lists the settings the config command can change
var configKeys = []string{"assets_serve_location", "base_path"}

// configCmd represents the command provider for the saved configuration
var configCmd = &cobra.Command{
	Use:   "config [show|path|set <key> <value>|reset]",
	Short: "Shows or changes the saved configuration",
	Long: `Shows or changes the configuration that decides where assets are served from.

The configuration is saved in $MANGANIS_CONFIG_PATH, or config.toml in the cache directory. $MANGANIS_SERVE_LOCATION
and $MG_BASEPATH override the saved values. Settings:

  assets_serve_location  prefix every unique name is appended to (default "/" for js and wasip1, "./assets/" otherwise)
  base_path              path the application is mounted under, prepended to absolute serve locations`,
	Args:              cmdValidateConfigArgs,
	ValidArgsFunction: cmdValidConfigArgs,
	RunE:              cmdRunConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	configCmd.Flags().String("target-os", "", "operating system whose defaults apply (default is $GOOS or the host)")
	rootCmd.AddCommand(configCmd)
}

// cmdValidConfigArgs completes the action and the setting names
func cmdValidConfigArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch {
	case len(args) == 0:
		return configActions, cobra.ShellCompDirectiveNoFileComp
	case len(args) == 1 && args[0] == "set":
		return configKeys, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateConfigArgs makes sure that the action is known and has the arguments it needs
func cmdValidateConfigArgs(cmd *cobra.Command, args []string) error {
	action := "show"
	if len(args) > 0 {
		action = args[0]
	}

	var err error
	switch action {
	case "show", "path", "reset":
		if len(args) > 1 {
			err = fmt.Errorf("config %s does not accept any further arguments", action)
		}
	case "set":
		if len(args) != 3 {
			err = fmt.Errorf("config set needs a key and a value")
		} else if !isConfigKey(args[1]) {
			err = fmt.Errorf("unknown setting '%s', expected one of %s", args[1], strings.Join(configKeys, ", "))
		}
	default:
		err = fmt.Errorf("unknown action '%s', expected one of %s", action, strings.Join(configActions, ", "))
	}

	if err != nil {
		cmdLogger.Error("Failed to validate args to the config command", err)
	}
	return err
}

// cmdRunConfig runs the requested config action
func cmdRunConfig(cmd *cobra.Command, args []string) error {
	goos, err := cmd.Flags().GetString("target-os")
	if err != nil {
		return err
	}
	if goos == "" {
		goos = config.TargetOS()
	}

	path, err := config.DefaultPath()
	if err != nil {
		return err
	}

	action := "show"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "path":
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	case "reset":
		if err = config.Default(goos).WriteToFile(path); err != nil {
			return err
		}
		cmdLogger.Info("Reset the configuration at ", colors.Bold, path, colors.Reset)
		return nil
	case "set":
		cfg, err := config.ReadSavedConfig(path, goos)
		if err != nil {
			return err
		}
		setConfigKey(cfg, args[1], args[2])
		if err = cfg.Validate(); err != nil {
			return err
		}
		if err = cfg.WriteToFile(path); err != nil {
			return err
		}
		cmdLogger.Info("Set ", args[1], " to ", colors.Bold, args[2], colors.Reset, " in ", path)
		return nil
	}

	cfg, err := config.ReadConfigFromFile(path, goos)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "assets_serve_location = %q\nbase_path = %q\nserve_root = %q\n",
		cfg.AssetsServeLocation, cfg.BasePath, cfg.ServeRoot())
	return nil
}

func isConfigKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

// setConfigKey changes one setting of cfg
func setConfigKey(cfg *config.Config, key string, value string) {
	switch key {
	case "assets_serve_location":
		cfg.AssetsServeLocation = value
	case "base_path":
		cfg.BasePath = config.NormalizeBasePath(value)
	}
}
