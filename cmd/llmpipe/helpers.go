package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/config"
	"github.com/Veraticus/llm-pipeline/internal/keychain"
	"github.com/Veraticus/llm-pipeline/internal/llm"
	"github.com/Veraticus/llm-pipeline/internal/service"
	"github.com/Veraticus/llm-pipeline/internal/sink"
	"github.com/Veraticus/llm-pipeline/internal/source"
)

// loadSettings reads the current configuration.
func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// createProvider builds the configured LLM provider. The API key comes
// from config or the environment, then from the OS keyring.
func createProvider(s *config.Settings) (*llm.Provider, error) {
	if err := s.ResolveAPIKey(keyringLookup); err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider:    s.LLM.Provider,
		APIKey:      s.LLM.APIKey,
		Model:       s.LLM.Model,
		FolderID:    s.LLM.FolderID,
		BaseURL:     s.LLM.BaseURL,
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
		RateLimit:   s.LLM.RateLimit,
		Timeout:     s.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Created LLM provider", "provider", provider.Name(), "model", provider.Model())
	return provider, nil
}

func keyringLookup(provider string) (string, error) {
	store, err := keychain.Open()
	if err != nil {
		slog.Debug("Keyring unavailable", "error", err)
		return "", err
	}
	return store.APIKey(provider)
}

// sourceConfig maps settings onto a source configuration.
func sourceConfig(s *config.Settings) source.Config {
	return source.Config{
		Query:        s.Source.Query,
		PrimaryKey:   s.Source.PrimaryKey,
		ContentField: s.Source.ContentField,
	}
}

// openSource connects the configured record source.
func openSource(ctx context.Context, s *config.Settings) (service.Source, error) {
	var (
		src service.Source
		err error
	)
	switch s.Database.Driver {
	case config.DriverSQLite:
		src, err = source.OpenSQLite(ctx, s.Database.Path, sourceConfig(s))
	default:
		src, err = source.OpenPostgres(ctx, s.PostgresDSN(), sourceConfig(s))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	return src, nil
}

// openSink connects the configured sink. The write template is checked
// before connecting.
func openSink(ctx context.Context, s *config.Settings) (service.Sink, error) {
	var (
		dst service.Sink
		err error
	)
	switch s.Database.Driver {
	case config.DriverSQLite:
		dst, err = sink.OpenSQLite(ctx, s.Database.Path, s.Sink.Query)
	default:
		dst, err = sink.OpenPostgres(ctx, s.PostgresDSN(), s.Sink.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open sink: %w", err)
	}
	return dst, nil
}

// retryOptions applies pipeline.max_retries to the default policy.
func retryOptions(s *config.Settings) service.RetryOptions {
	opts := common.DefaultRetryOptions()
	if s.Pipeline.MaxRetries > 0 {
		opts.MaxAttempts = s.Pipeline.MaxRetries
	}
	return opts
}
