package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/dollar-ci/internal/github"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Verify the App credentials and list its installations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GitHub.RequestTimeout)
		defer cancel()

		info, err := github.DescribeApp(ctx, cfg.GitHub, nil)
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "✗ App %d could not authenticate\n", cfg.GitHub.AppID)
			return err
		}

		out := cmd.OutOrStdout()
		titleColor.Fprintf(out, "%s (%s)\n", info.Name, info.Slug)
		fmt.Fprintf(out, "  App ID: %d\n  Owner:  %s\n\n", info.ID, info.Owner)
		if len(info.Installations) == 0 {
			warnColor.Fprintln(out, "No installations.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "INSTALLATION\tACCOUNT\tTYPE")
		for _, inst := range info.Installations {
			fmt.Fprintf(w, "%d\t%s\t%s\n", inst.ID, inst.Account, inst.Target)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(appCmd)
}
