package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/llm-pipeline/internal/cli"
	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/engine"
)

func validateSQLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-sql",
		Short: "Ask the LLM whether the source and sink queries match",
		Long: `Check that source.query and sink.query address the same field without
processing any records. The verdict and the model's explanation are printed.`,
		RunE: runValidateSQL,
	}
}

func runValidateSQL(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.ValidateDatabase(); err != nil {
		return err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}
	src, err := openSource(ctx, settings)
	if err != nil {
		return err
	}
	dst, err := openSink(ctx, settings)
	if err != nil {
		_ = src.Close(ctx)
		return err
	}

	p := engine.New(src, dst, provider, engine.Options{
		SQLValidationPromptFile: settings.Pipeline.SQLValidationPromptFile,
		Retry:                   retryOptions(settings),
	})
	defer func() {
		if closeErr := p.Close(ctx); closeErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(closeErr.Error()))
		}
	}()

	valid, explanation, err := p.ValidateSQL(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if explanation != "" {
		fmt.Fprintln(out, explanation)
	}
	if !valid {
		return common.NewUserError("Queries are not compatible", errPreflightRejected)
	}
	fmt.Fprintln(out, cli.FormatSuccess("Queries are compatible"))
	return nil
}
