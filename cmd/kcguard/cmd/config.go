package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kcguard/pkg/config"
)

var (
	outputFormat string
	showSecret   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved adapter configuration",
	Long: `Print the adapter configuration after alias and ${env.NAME} resolution,
together with the realm URLs derived from it.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format (yaml or json)")
	configCmd.Flags().BoolVar(&showSecret, "show-secret", false, "print the client secret instead of masking it")
	rootCmd.AddCommand(configCmd)
}

// resolvedConfig is the printed view of Settings
type resolvedConfig struct {
	config.Settings `yaml:",inline"`

	RealmURL      string `json:"realmUrl" yaml:"realmUrl"`
	RealmAdminURL string `json:"realmAdminUrl" yaml:"realmAdminUrl"`
	Issuer        string `json:"issuer" yaml:"issuer"`
	JWKSURL       string `json:"jwksUrl" yaml:"jwksUrl"`
	JWKSInterval  string `json:"jwksInterval" yaml:"jwksInterval"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	view := resolvedConfig{
		Settings:      *settings,
		RealmURL:      settings.RealmURL(),
		RealmAdminURL: settings.RealmAdminURL(),
		Issuer:        settings.Issuer(),
		JWKSURL:       settings.JWKSURL(),
		JWKSInterval:  settings.JWKSInterval().String(),
	}
	if view.Secret != "" && !showSecret {
		view.Secret = "********"
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, view)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}
}
