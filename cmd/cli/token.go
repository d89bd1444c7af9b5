package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/dollar-ci/internal/wire"
)

var tokenInstallation int64

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an installation access token",
	Long: `Sign an App assertion and exchange it for an installation access token.
The token is printed on stdout so it can be piped, for example into
curl -H "Authorization: token $(dollar-ci token --installation 42)".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GitHub.RequestTimeout)
		defer cancel()

		token, err := wire.InitializeTokenBroker(cfg, logger).InstallationToken(ctx, cfg.GitHub.AppName, tokenInstallation)
		if err != nil {
			return fmt.Errorf("failed to mint installation token: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	tokenCmd.Flags().Int64Var(&tokenInstallation, "installation", 0, "Installation ID")
	_ = tokenCmd.MarkFlagRequired("installation")
	rootCmd.AddCommand(tokenCmd)
}
