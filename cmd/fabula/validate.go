package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fabula/internal/config"
	"fabula/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <world-id>",
		Short: "Report authoring integrity problems in a stored world",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	report, err := validate.Run(ctx, db, args[0])
	if err != nil {
		return err
	}

	if len(report.Issues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(os.Stdout, "%-7s %-24s %s (%s)\n", issue.Severity, issue.Code, issue.Message, issue.Subject)
	}
	if report.Errors() > 0 {
		return fmt.Errorf("validation found %d errors", report.Errors())
	}
	return nil
}
