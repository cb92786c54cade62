package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kcguard/pkg/token"
)

var (
	inspectClientID string
	inspectRoles    []string
	inspectOutput   string
)

// ErrMissingRole is returned when an inspected token lacks every requested role
var ErrMissingRole = errors.New("token has none of the requested roles")

var inspectCmd = &cobra.Command{
	Use:   "inspect <jwt>",
	Short: "Decode an access token and check its roles",
	Long: `Decode an access token without verifying its signature and print its header,
claims and expiry.

Roles are checked the way the adapter checks them: "name" is a role of the
client (--client-id, defaulting to the configured clientId), "realm:name" a realm
role and "app:name" a role of application app. The command fails if --role is
given and the token has none of the roles.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectClientID, "client-id", "", "client id for unqualified roles (default: clientId from the configuration)")
	inspectCmd.Flags().StringSliceVar(&inspectRoles, "role", nil, "role to check (repeatable)")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "yaml", "output format (yaml or json)")
	rootCmd.AddCommand(inspectCmd)
}

// inspection is the printed view of a token
type inspection struct {
	ClientID  string          `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	Header    map[string]any  `json:"header" yaml:"header"`
	Claims    map[string]any  `json:"claims" yaml:"claims"`
	ExpiresAt string          `json:"expiresAt" yaml:"expiresAt"`
	Expired   bool            `json:"expired" yaml:"expired"`
	Roles     map[string]bool `json:"roles,omitempty" yaml:"roles,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	clientID := inspectClientID
	if !cmd.Flags().Changed("client-id") {
		if settings, err := loadSettings(); err == nil {
			clientID = settings.ClientID
		} else {
			logger.Debug("no configuration for client id", zap.Error(err))
		}
	}

	tok := token.Parse(args[0], clientID)
	if tok.Malformed() {
		return errors.New("token is malformed")
	}

	view := inspection{
		ClientID:  clientID,
		Header:    tok.Header(),
		Claims:    tok.Claims(),
		ExpiresAt: tok.ExpiresAt().UTC().Format(time.RFC3339),
		Expired:   tok.IsExpired(),
	}

	granted := false
	if len(inspectRoles) > 0 {
		view.Roles = make(map[string]bool, len(inspectRoles))
		for _, role := range inspectRoles {
			ok := tok.HasRole(role)
			view.Roles[role] = ok
			granted = granted || ok
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), inspectOutput, view); err != nil {
		return err
	}

	if len(inspectRoles) > 0 && !granted {
		return fmt.Errorf("%w: %v", ErrMissingRole, inspectRoles)
	}
	return nil
}
