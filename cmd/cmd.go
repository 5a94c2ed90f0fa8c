package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "contacthub",
	Short: "ContactHub",
	Long:  `Division-scoped contact management with spreadsheet imports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig layers config.yml over environment defaults. In production only
// the environment is read.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	cfg, err := internal.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	if !cfg.IsProduction() {
		v := viper.New()
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.SetEnvPrefix("ENV")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case err != nil:
			return nil, fmt.Errorf("error reading config: %w", err)
		default:
			if err := v.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("error unmarshaling config: %w", err)
			}
		}
	}

	logger.InitWithOptions(cfg.Env, logger.Options{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	generated, err := cfg.Security.EnsureSessionSecret()
	if err != nil {
		return nil, err
	}
	if generated {
		logger.LoggerWrapper().Warn("no session secret configured; generated an ephemeral one, sessions will not survive a restart")
	}

	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
}
