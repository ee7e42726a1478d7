package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/configs"
	"github.com/PolarWolf314/ripenv/internal/ui"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change ripenv configuration",
	Long: `Reads and writes ~/.ripenv/config.toml.

RIPENV_* environment variables override the file:
  RIPENV_HOME, RIPENV_EMAIL, RIPENV_KEYFILE, RIPENV_PROJECT_ID,
  RIPENV_OUT_DIR, RIPENV_SUPABASE_URL, RIPENV_SUPABASE_ANON_KEY

Examples:
  ripenv config set user.email alice@example.com
  ripenv config set directory.supabase_url https://xyz.supabase.co
  ripenv config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		settings, err := configs.LoadSettings()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve ripenv home: %w", err)
		}
		config, err := configs.Load(settings)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", ui.Muted.Sprint(settings.ConfigPath()))
		for _, key := range configs.Keys() {
			value, err := config.Get(key)
			if err != nil {
				return err
			}
			if value == "" {
				value = ui.Muted.Sprint("not set")
			} else if strings.HasSuffix(key, "anon_key") {
				value = maskSecret(value)
			}
			fmt.Fprintf(out, "%-28s %s\n", key, value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in ~/.ripenv/config.toml",
	Long: "Sets a value in ~/.ripenv/config.toml. An empty value clears the key.\n\nKeys: " +
		strings.Join(configs.Keys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config set command")
		key, value := args[0], args[1]

		settings, err := configs.LoadSettings()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve ripenv home: %w", err)
		}

		// Only the file layer is edited; environment overrides stay out of it.
		config, err := configs.LoadFileConfig(settings.ConfigPath())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}
		if err := config.Set(key, value); err != nil {
			return Logger.ErrorfAndReturn("%w", err)
		}
		if err := configs.SaveFileConfig(settings.ConfigPath(), config); err != nil {
			return Logger.ErrorfAndReturn("%w", err)
		}

		Logger.Debugf("Wrote %s", settings.ConfigPath())
		fmt.Fprint(cmd.OutOrStdout(), ui.SuccessLine("Set "+ui.Code.Sprint(strings.ToLower(key))+" in "+ui.Path.Sprint(settings.ConfigPath())))
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configSetCmd)
}

// maskSecret keeps the last four characters for recognition.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
