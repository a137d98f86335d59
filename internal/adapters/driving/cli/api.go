package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
)

var apiData string

var apiCmd = &cobra.Command{
	Use:   "api [method] [path]",
	Short: "Make an authenticated API call",
	Long: `Sends one request to the configured API and prints the JSON response.
The path is appended to the API base URL unless it is an absolute URL.

  outlookcal api GET /me/events
  outlookcal api PATCH /me/events/AAMk... --data '{"subject":"Moved"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVarP(&apiData, "data", "d", "", "JSON request body for POST and PATCH")
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	method, err := microsoft.ParseMethod(args[0])
	if err != nil {
		return err
	}

	var payload any
	if apiData != "" {
		if !json.Valid([]byte(apiData)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		payload = json.RawMessage(apiData)
	}

	token, err := requireAccessToken()
	if err != nil {
		return err
	}
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	target := args[1]
	if !strings.HasPrefix(target, "https://") && !strings.HasPrefix(target, "http://") {
		target = client.URL(target)
	}

	res, err := client.MakeAPICall(cmd.Context(), token, method, target, payload)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}
