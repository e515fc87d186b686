package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/llm-pipeline/internal/cli"
	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/config"
	"github.com/Veraticus/llm-pipeline/internal/engine"
	"github.com/Veraticus/llm-pipeline/internal/progress"
	"github.com/Veraticus/llm-pipeline/internal/validation"
)

// errPreflightRejected marks a run stopped by the query compatibility check.
var errPreflightRejected = errors.New("run aborted: SQL validation failed")

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform every selected record and write the results back",
		Long: `Run the pipeline: count the records selected by source.query, send each
one through the configured LLM with the prompt file as system instruction,
validate the answer and write it back with sink.query.

Writes are committed every --batch-size records. Press Ctrl+C once to stop
after the current record, twice to abort immediately.`,
		RunE: runPipeline,
	}

	cmd.Flags().String("prompt", "", "prompt file with the transformation instructions")
	cmd.Flags().Int("batch-size", 0, "records per commit (default 10)")
	cmd.Flags().Bool("skip-sql-validation", false, "skip the query compatibility check")
	cmd.Flags().Bool("strict", false, "also reject answers with unbalanced angle brackets")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	_ = viper.BindPFlag("pipeline.prompt_file", cmd.Flags().Lookup("prompt"))
	_ = viper.BindPFlag("pipeline.strict_validation", cmd.Flags().Lookup("strict"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, settings); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
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

	token := engine.NewShutdownToken()
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), token)
	ctx, stop := handler.HandleInterrupts(ctx)
	defer stop()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	var reporter engine.Reporter
	if !noProgress {
		reporter = progress.NewBar(cmd.ErrOrStderr())
	}

	opts := engine.Options{
		PromptFile:              settings.Pipeline.PromptFile,
		SQLValidationPromptFile: settings.Pipeline.SQLValidationPromptFile,
		ValidateSQL:             settings.Pipeline.ValidateSQL,
		BatchCommitSize:         settings.Pipeline.BatchCommitSize,
		Retry:                   retryOptions(settings),
		Shutdown:                token,
		Reporter:                reporter,
	}
	opts.Strategy = engine.NewSequentialStrategy(opts.Retry, newValidator(settings), nil)

	slog.Info("Starting pipeline",
		"provider", provider.Name(),
		"model", provider.Model(),
		"driver", settings.Database.Driver,
		"batch_commit_size", settings.Pipeline.BatchCommitSize)

	report, err := engine.New(src, dst, provider, opts).Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	if report == nil {
		return common.NewUserError("SQL validation failed, no records were processed. See the log for the explanation", errPreflightRejected)
	}

	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No records to process."))
		return nil
	}

	fmt.Fprintln(out, cli.RenderSummary(report.Stats, report.Interrupted))
	if report.Stats.Failed > 0 {
		fmt.Fprint(out, cli.RenderFailures(report.Results))
	}
	return nil
}

// applyRunFlags lets explicit flags override configuration.
func applyRunFlags(cmd *cobra.Command, s *config.Settings) error {
	if cmd.Flags().Changed("batch-size") {
		size, err := cmd.Flags().GetInt("batch-size")
		if err != nil {
			return err
		}
		s.Pipeline.BatchCommitSize = size
	}
	if skip, _ := cmd.Flags().GetBool("skip-sql-validation"); skip {
		s.Pipeline.ValidateSQL = false
	}
	return nil
}

func newValidator(s *config.Settings) *validation.Validator {
	if s.Pipeline.StrictValidation {
		return validation.NewValidator(validation.BalancedAngleBrackets)
	}
	return validation.NewValidator()
}
