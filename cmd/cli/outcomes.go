package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sevigo/dollar-ci/internal/core"
	"github.com/sevigo/dollar-ci/internal/wire"
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var errNoDatabase = errors.New("no outcome database configured, set DATABASE_HOST")

var outcomesFlags struct {
	limit  int
	output string
}

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "List the most recent check run outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		store, cleanup, err := wire.InitializeStore(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open outcome store: %w", err)
		}
		defer cleanup()
		if store == nil {
			return errNoDatabase
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		outcomes, err := store.ListOutcomes(ctx, outcomesFlags.limit)
		if err != nil {
			return err
		}
		return renderOutcomes(cmd.OutOrStdout(), outcomesFlags.output, outcomes)
	},
}

func renderOutcomes(w io.Writer, format string, outcomes []core.Outcome) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(outcomes)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(outcomes); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "":
		return renderTable(w, outcomes)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func renderTable(w io.Writer, outcomes []core.Outcome) error {
	if len(outcomes) == 0 {
		_, err := fmt.Fprintln(w, "No outcomes recorded yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TIME\tREPOSITORY\tSHA\tACTION\tTRANSITION\tGITHUB\tRESULT")
	for _, o := range outcomes {
		result := successColor.Sprint("ok")
		switch {
		case o.Transition == core.TransitionNone:
			result = dimColor.Sprint("ignored")
		case !o.Succeeded():
			result = errorColor.Sprint(o.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			o.CreatedAt.Local().Format(time.RFC822),
			o.RepoFullName,
			shortSHA(o.HeadSHA),
			o.Action,
			o.Transition,
			o.GitHubStatus,
			result,
		)
	}
	return tw.Flush()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func init() { //nolint:gochecknoinits // Cobra command registration
	outcomesCmd.Flags().IntVarP(&outcomesFlags.limit, "limit", "n", 20, "Number of outcomes to show")
	outcomesCmd.Flags().StringVarP(&outcomesFlags.output, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(outcomesCmd)
}
