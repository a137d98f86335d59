package cli

import (
	"github.com/spf13/cobra"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Print the signed-in user's profile",
	RunE:  runMe,
}

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Print the signed-in user's photo metadata",
	RunE:  runPhoto,
}

func init() {
	rootCmd.AddCommand(meCmd, photoCmd)
}

func runMe(cmd *cobra.Command, _ []string) error {
	token, err := requireAccessToken()
	if err != nil {
		return err
	}
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}
	res, err := client.UserInfo(cmd.Context(), token)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func runPhoto(cmd *cobra.Command, _ []string) error {
	token, err := requireAccessToken()
	if err != nil {
		return err
	}
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}
	res, err := client.Photo(cmd.Context(), token)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}
