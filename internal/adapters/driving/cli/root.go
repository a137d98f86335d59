package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlookcal/internal/adapters/driven/config/file"
	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

// EnvAccessToken supplies --access-token when the flag is not given.
const EnvAccessToken = "OUTLOOKCAL_ACCESS_TOKEN"

var errNoAccessToken = errors.New("no access token: pass --access-token or set " + EnvAccessToken)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	configPath  string
	accessToken string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "outlookcal",
	Short: "Outlook calendar and contacts from the command line",
	Long: `outlookcal signs in to a Microsoft account and works with its calendar,
contacts and profile through Microsoft Graph or the legacy Outlook REST API.

Tokens are printed, never stored. Pass an access token to the data commands
with --access-token or the OUTLOOKCAL_ACCESS_TOKEN environment variable.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.outlookcal/config.toml)")
	rootCmd.PersistentFlags().StringVar(&accessToken, "access-token", "", "access token for API commands")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}

// openStore opens the config file named by --config, or the default one.
func openStore() (*file.ConfigStore, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if configPath != "" {
		store, err = file.OpenConfigFile(configPath)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return store, nil
}

func loadSettings() (file.Settings, error) {
	store, err := openStore()
	if err != nil {
		return file.Settings{}, err
	}

	settings := file.LoadSettings(store, nil)
	logger.Debug("config: loaded %s (profile %q)", store.Path(), settings.Profile)
	return settings, nil
}

// newClient builds a client from the loaded settings. configure may adjust
// the builder, e.g. to add login parameters.
func newClient(configure func(*microsoft.ConfigBuilder)) (*microsoft.Client, file.Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, settings, err
	}

	b, err := settings.Builder()
	if err != nil {
		return nil, settings, err
	}
	if configure != nil {
		configure(b)
	}

	return microsoft.NewClient(b.Build(), settings.ClientOptions()...), settings, nil
}

func requireAccessToken() (string, error) {
	if accessToken != "" {
		return accessToken, nil
	}
	if v := os.Getenv(EnvAccessToken); v != "" {
		return v, nil
	}
	return "", errNoAccessToken
}

// printResult writes to stdout the payload, or the error shape, as indented JSON. A
// failed result is also returned as the command's error.
func printResult(cmd *cobra.Command, res microsoft.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		out.Reset()
		out.Write(data)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())

	return res.Err()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
