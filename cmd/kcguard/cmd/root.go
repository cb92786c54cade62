package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kcguard/pkg/config"
	"kcguard/pkg/logging"
)

var (
	configPath string
	envFile    string
	logLevel   string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "kcguard",
	Short: "Keycloak adapter configuration and token inspection",
	Long: `kcguard resolves Keycloak adapter configuration (keycloak.json) and inspects
access tokens against it.

Print the resolved configuration:
  kcguard config --config ./keycloak.json

Check a token for roles:
  kcguard inspect <jwt> --role realm:admin --role orders:read`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}

		l, err := logging.New(logLevel, "text")
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to keycloak.json (default: keycloak.json in the working directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before ${env.NAME} references are resolved")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func loadSettings() (*config.Settings, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	logger.Debug("loading configuration", zap.String("path", path))
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return settings, nil
}
