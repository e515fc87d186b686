package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/llm-pipeline/internal/cli"
)

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print how many records the source query selects",
		RunE:  runCount,
	}
}

func runCount(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.ValidateDatabase(); err != nil {
		return err
	}

	src, err := openSource(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close(ctx) }()

	total, err := src.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatField("Records", strconv.Itoa(total)))
	return nil
}
