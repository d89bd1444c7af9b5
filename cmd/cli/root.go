package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dollar-ci",
	Short: "dollar-ci is the command-line interface for the dollar-ci GitHub App.",
	Long: `A CLI for operating the dollar-ci GitHub App: drive check runs by hand,
mint installation tokens, verify the App credentials and inspect recorded outcomes.

Configuration is read the same way the server reads it: .env, config.yaml and
environment variables such as GITHUB_APP_ID and GITHUB_PRIVATE_KEY_PATH.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads CLI-only settings from DOLLAR_CI_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("DOLLAR_CI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig loads the service configuration and a stderr logger for a
// command.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	level := "warn"
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return cfg, logger.NewLogger(logger.Config{Level: level, Format: "text"}, os.Stderr), nil
}
