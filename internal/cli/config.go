package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whispera-app/whispera/internal/config"
)

// Settings keys as exposed on the command line, mapped to stored keys.
var configKeys = map[string]string{
	"api-key": config.KeyAPIKey,
}

// validConfigKeys returns the user-facing key names, sorted.
func validConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
		Long: `Manage persistent settings.

Settings are stored as KEY=VALUE lines in a .env file next to the whispera
binary and loaded into the environment at startup.

Supported settings:
  api-key    OpenAI API credential (env: OPENAI_API_KEY)`,
		Example: `  whispera config set api-key sk-...
  whispera config get api-key
  whispera config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a settings value",
		Example: `  whispera config set api-key sk-...`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a settings value",
		Example: `  whispera config get api-key`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all settings",
		Example: `  whispera config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	storedKey, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown settings key %q (valid keys: %v)", key, validConfigKeys())
	}

	if err := config.Save(storedKey, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, maskSecret(value))
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	storedKey, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown settings key %q (valid keys: %v)", key, validConfigKeys())
	}

	value, err := config.Get(storedKey)
	if err != nil {
		return err
	}

	// Environment fallback for completeness.
	if value == "" {
		value = env.Getenv(storedKey)
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, maskSecret(value))
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.Load()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No settings set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range validConfigKeys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for key, value := range data {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, maskSecret(value))
	}
	return nil
}

// maskSecret hides all but the start of a credential-like value.
func maskSecret(value string) string {
	if !strings.HasPrefix(value, "sk-") {
		return value
	}
	if len(value) <= 7 {
		return "sk-..."
	}
	return value[:7] + "..."
}
