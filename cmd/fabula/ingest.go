package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fabula/internal/config"
	"fabula/internal/ingest"
)

var (
	ingestFile    string
	ingestReplace bool
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a packaged storyworld file into the store",
		RunE:  runIngest,
	}
	cmd.Flags().StringVar(&ingestFile, "world", "world.yaml", "Path to the storyworld file")
	cmd.Flags().BoolVar(&ingestReplace, "replace", false, "Drop the world's existing authored content first")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	result, err := ingest.Run(ctx, db, ingestFile, ingest.Options{
		Replace:  ingestReplace,
		StudioID: cfg.StudioID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported world %s.\n", result.WorldID)
	fmt.Fprintf(os.Stdout, "  Scenes:     %d\n", result.Scenes)
	fmt.Fprintf(os.Stdout, "  Events:     %d\n", result.Events)
	fmt.Fprintf(os.Stdout, "  Choices:    %d\n", result.Choices)
	fmt.Fprintf(os.Stdout, "  Inputs:     %d\n", result.Inputs)
	fmt.Fprintf(os.Stdout, "  Paths:      %d\n", result.Paths)
	fmt.Fprintf(os.Stdout, "  Conditions: %d\n", result.Conditions)
	fmt.Fprintf(os.Stdout, "  Effects:    %d\n", result.Effects)
	fmt.Fprintf(os.Stdout, "  Variables:  %d\n", result.Variables)
	fmt.Fprintf(os.Stdout, "  Characters: %d\n", result.Characters)
	return nil
}
