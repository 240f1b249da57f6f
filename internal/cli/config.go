package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/agentx-labs/tooldex/internal/config"
)

// configKeys lists the settings config get/set accept.
var configKeys = []string{
	config.KeyDBPath,
	config.KeyClaudeHome,
	config.KeyClaudeJSON,
	config.KeyCodexHome,
	config.KeyLogLevel,
	config.KeyLogFile,
	config.KeyScanParallel,
	config.KeyUsageWindowDays,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/` + branding.HomeDir() + `/config.yaml.
Every setting can also be overridden with a ` + branding.EnvPrefix() + `_<KEY> environment variable.

Keys: ` + strings.Join(configKeys, ", "),
}

func checkConfigKey(key string) error {
	for _, k := range configKeys {
		if k == key {
			return nil
		}
	}
	known := append([]string(nil), configKeys...)
	sort.Strings(known)
	return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(known, ", "))
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkConfigKey(key); err != nil {
			return err
		}
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkConfigKey(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}
