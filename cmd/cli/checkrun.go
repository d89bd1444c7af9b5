package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/wire"
)

var checkRunFlags struct {
	repo         string
	sha          string
	installation int64
	success      bool
}

var checkRunCmd = &cobra.Command{
	Use:   "check-run",
	Short: "Drive a check run through its lifecycle by hand",
	Long: `Create, start or complete a check run exactly as the webhook service does.

Examples:
  dollar-ci check-run create --repo org/repo --sha deadbeef --installation 42
  dollar-ci check-run complete --repo org/repo --sha deadbeef --installation 42 --success=false`,
}

func newTransitionCmd(use, short string, call func(ctx context.Context, client core.CheckRunClient) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GitHub.RequestTimeout)
			defer cancel()

			start := time.Now()
			status, err := call(ctx, wire.InitializeCheckRunClient(cfg, logger))
			if err != nil {
				errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %s check run failed: %v\n", use, err)
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ %s check run for %s@%s: HTTP %d ", use, checkRunFlags.repo, checkRunFlags.sha, status)
			dimColor.Fprintf(cmd.OutOrStdout(), "(%s)\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func init() { //nolint:gochecknoinits // Cobra command registration
	createCmd := newTransitionCmd("create", "Register a new check run", func(ctx context.Context, c core.CheckRunClient) (int, error) {
		return c.CreateCheckRun(ctx, checkRunFlags.repo, checkRunFlags.sha, checkRunFlags.installation)
	})
	startCmd := newTransitionCmd("start", "Mark a check run in progress", func(ctx context.Context, c core.CheckRunClient) (int, error) {
		return c.StartCheckRun(ctx, checkRunFlags.repo, checkRunFlags.sha, checkRunFlags.installation)
	})
	completeCmd := newTransitionCmd("complete", "Complete a check run with a conclusion", func(ctx context.Context, c core.CheckRunClient) (int, error) {
		return c.CompleteCheckRun(ctx, checkRunFlags.repo, checkRunFlags.sha, checkRunFlags.success, checkRunFlags.installation)
	})
	completeCmd.Flags().BoolVar(&checkRunFlags.success, "success", true, "Conclude with success (false concludes with failure)")

	checkRunCmd.PersistentFlags().StringVar(&checkRunFlags.repo, "repo", "", "Repository in owner/name form")
	checkRunCmd.PersistentFlags().StringVar(&checkRunFlags.sha, "sha", "", "Head commit SHA")
	checkRunCmd.PersistentFlags().Int64Var(&checkRunFlags.installation, "installation", 0, "Installation ID")
	for _, name := range []string{"repo", "sha", "installation"} {
		if err := checkRunCmd.MarkPersistentFlagRequired(name); err != nil {
			panic(fmt.Sprintf("mark %s required: %v", name, err))
		}
	}

	checkRunCmd.AddCommand(createCmd, startCmd, completeCmd)
	rootCmd.AddCommand(checkRunCmd)
}
