package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft/contacts"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contacts as name and email",
	RunE:  runContacts,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func runContacts(cmd *cobra.Command, _ []string) error {
	token, err := requireAccessToken()
	if err != nil {
		return err
	}
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	list, err := contacts.NewService(client).List(cmd.Context(), token)
	if err != nil {
		return err
	}
	return printJSON(cmd, list)
}
