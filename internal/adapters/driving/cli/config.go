package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlookcal/internal/adapters/driven/config/file"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write the config file",
	Long: `Reads and writes keys of the [outlook_calendar] table. Keys may be given
with or without the "outlook_calendar." prefix.

  outlookcal config set client_id 11111111-2222-3333-4444-555555555555
  outlookcal config set scopes "Contacts.Read User.Read"
  outlookcal config get profile`,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key with its value",
	RunE:  runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := saveSetting(args[0], args[1]); err != nil {
		return err
	}
	key, _ := file.SettingKey(args[0])
	cmd.PrintErrf("%s saved\n", key)
	return nil
}

func saveSetting(key, value string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := file.SetSetting(store, key, value); err != nil {
		return err
	}
	logger.Debug("config: wrote %s to %s", key, store.Path())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key, err := file.SettingKey(args[0])
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), displayValue(store, key))
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	for _, key := range file.SettingKeys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, displayValue(store, key))
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path())
	return nil
}

// displayValue renders a stored value. The client secret is only ever shown
// as set or unset.
func displayValue(store *file.ConfigStore, key string) string {
	val, ok := store.Get(key)
	if !ok {
		return "(unset)"
	}
	if key == file.KeyClientSecret {
		return "(set)"
	}
	if key == file.KeyScopes {
		return strings.Join(store.GetStringSlice(key), " ")
	}
	return fmt.Sprint(val)
}
