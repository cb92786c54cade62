package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kcguard/pkg/browser"
	"kcguard/pkg/oauth"
)

var (
	redirectURL string
	openBrowser bool
)

var authURLCmd = &cobra.Command{
	Use:   "auth-url",
	Short: "Print a login URL for the configured client",
	Long: `Print an authorization code login URL (with PKCE) for the configured realm and
client, along with the state and code verifier needed to redeem the code.`,
	Args: cobra.NoArgs,
	RunE: runAuthURL,
}

func init() {
	authURLCmd.Flags().StringVar(&redirectURL, "redirect-url", "", "redirect URI registered for the client")
	authURLCmd.Flags().BoolVar(&openBrowser, "open", false, "open the URL in the default browser")
	rootCmd.AddCommand(authURLCmd)
}

func runAuthURL(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.BearerOnly {
		return fmt.Errorf("client %s is bearer-only and cannot start a login", settings.ClientID)
	}

	req, err := oauth.NewAuthRequest(oauth.NewConfig(settings, redirectURL))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "URL: %s\n", req.URL)
	fmt.Fprintf(out, "State: %s\n", req.State)
	fmt.Fprintf(out, "Verifier: %s\n", req.Verifier)

	if openBrowser {
		if err := browser.Open(req.URL); err != nil {
			logger.Warn("failed to open browser", zap.Error(err))
		}
	}
	return nil
}
