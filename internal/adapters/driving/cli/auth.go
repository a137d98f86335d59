package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/outlookcal/internal/adapters/driven/config/file"
	"github.com/custodia-labs/outlookcal/internal/adapters/driving/oauth"
	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var (
	loginNoBrowser  bool
	loginSaveSecret bool
	loginTimeout    time.Duration
	loginScopes     []string
	loginParams     map[string]string
	logoutRedirect  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print the issued tokens",
	Long: `Opens the Microsoft sign-in page and waits for the redirect on the
configured loopback redirect_uri. The token response is printed as JSON.`,
	RunE: runLogin,
}

var loginURLCmd = &cobra.Command{
	Use:   "login-url",
	Short: "Print the authorization URL",
	RunE:  runLoginURL,
}

var logoutURLCmd = &cobra.Command{
	Use:   "logout-url",
	Short: "Print the sign-out URL",
	RunE:  runLogoutURL,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh [refresh-token]",
	Short: "Exchange a refresh token for a new access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenRefresh,
}

func init() {
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "print the URL instead of opening a browser")
	loginCmd.Flags().BoolVar(&loginSaveSecret, "save-secret", false, "write a prompted client secret to the config file")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 5*time.Minute, "how long to wait for the redirect")
	loginCmd.Flags().StringSliceVar(&loginScopes, "scope", nil, "extra scope to request (repeatable)")

	loginURLCmd.Flags().StringToStringVar(&loginParams, "param", nil, "state parameter as key=value (repeatable)")
	loginURLCmd.Flags().StringSliceVar(&loginScopes, "scope", nil, "extra scope to request (repeatable)")

	logoutURLCmd.Flags().StringVar(&logoutRedirect, "redirect", "", "post-logout redirect (default redirect_uri)")

	tokenCmd.AddCommand(tokenRefreshCmd)
	rootCmd.AddCommand(loginCmd, loginURLCmd, logoutURLCmd, tokenCmd)
}

func addScopes(b *microsoft.ConfigBuilder) {
	for _, scope := range loginScopes {
		b.AddScope(scope)
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	nonce, err := oauth.NewNonce()
	if err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	server, err := oauth.NewCallbackServer(settings.RedirectURI, nonce)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer func() { _ = server.Stop() }()
	redirectURI := server.RedirectURI()

	secret := settings.ClientSecret
	if secret == "" {
		secret = promptSecret(cmd)
		if loginSaveSecret && secret != "" {
			if err := saveSetting(file.KeyClientSecret, secret); err != nil {
				return err
			}
		}
	}

	client, _, err := newClient(func(b *microsoft.ConfigBuilder) {
		b.SetClientSecret(secret)
		addScopes(b)
		b.SetParameters(map[string]any{oauth.NonceParam: nonce})
	})
	if err != nil {
		return err
	}

	loginURL, err := client.Config().LoginURL(redirectURI)
	if err != nil {
		return err
	}

	logger.Section("Login")
	cmd.PrintErrf("Open this URL to sign in:\n\n  %s\n\n", loginURL)
	if !loginNoBrowser {
		if err := openBrowser(loginURL); err != nil {
			logger.Warn("could not open browser: %v", err)
		}
	}

	ctx := cmd.Context()
	cb, err := server.WaitForCallback(ctx, loginTimeout)
	if err != nil {
		return err
	}

	return printResult(cmd, client.GetTokenFromAuthCode(ctx, cb.Code, redirectURI))
}

func runLoginURL(cmd *cobra.Command, _ []string) error {
	params := make(map[string]any, len(loginParams))
	for k, v := range loginParams {
		params[k] = v
	}

	client, settings, err := newClient(func(b *microsoft.ConfigBuilder) {
		addScopes(b)
		b.SetParameters(params)
	})
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	loginURL, err := client.Config().LoginURL(settings.RedirectURI)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), loginURL)
	return err
}

func runLogoutURL(cmd *cobra.Command, _ []string) error {
	client, settings, err := newClient(nil)
	if err != nil {
		return err
	}

	redirect := logoutRedirect
	if redirect == "" {
		redirect = settings.RedirectURI
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), client.Config().LogoutURL(redirect))
	return err
}

func runTokenRefresh(cmd *cobra.Command, args []string) error {
	client, settings, err := newClient(nil)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	res := client.GetTokenFromRefreshToken(cmd.Context(), args[0], settings.RedirectURI)
	return printResult(cmd, res)
}

// promptSecret asks for the client secret when none is configured. Public
// clients may leave it empty.
func promptSecret(cmd *cobra.Command) string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	cmd.PrintErr("Client secret (leave empty for a public client): ")
	secret := readPassword()
	cmd.PrintErrln()
	return secret
}

func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
