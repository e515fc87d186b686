package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/llm-pipeline/internal/model"
)

// Defaults shared by every vendor.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
	DefaultTimeout     = 120 * time.Second

	compatibilityMaxTokens = 500
)

// Config holds configuration for a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// FolderID is the Yandex Cloud folder the model is billed to.
	FolderID string
	// BaseURL overrides the vendor endpoint, e.g. for a proxy.
	BaseURL     string
	Temperature float64
	MaxTokens   int
	// RateLimit caps requests per minute. Zero disables limiting.
	RateLimit int
	Timeout   time.Duration
}

// completionRequest is the vendor-neutral shape of one chat call.
type completionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// completionResponse is the vendor-neutral shape of one chat answer.
type completionResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// completer is implemented by each vendor client.
type completer interface {
	complete(ctx context.Context, req completionRequest) (completionResponse, error)
}

// Provider transforms text through a vendor's API. It implements
// service.Provider.
type Provider struct {
	client      completer
	limiter     *rateLimiter
	prices      priceTable
	name        string
	model       string
	fallback    Pricing
	temperature float64
	maxTokens   int
}

// Name returns the vendor name.
func (p *Provider) Name() string { return p.name }

// Model returns the model identifier.
func (p *Provider) Model() string { return p.model }

// Execute transforms content using prompt as the system instruction.
func (p *Provider) Execute(ctx context.Context, prompt, content string) (model.Completion, error) {
	resp, err := p.send(ctx, completionRequest{
		System:      prompt,
		User:        content,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return model.Completion{}, err
	}

	return model.Completion{
		Text:       resp.Text,
		TokensUsed: resp.InputTokens + resp.OutputTokens,
		Cost:       p.Cost(resp.InputTokens, resp.OutputTokens),
	}, nil
}

// ValidateCompatibility asks the model whether selectQuery and updateQuery
// address the same field.
func (p *Provider) ValidateCompatibility(ctx context.Context, selectQuery, updateQuery, instructions string) (bool, string, error) {
	resp, err := p.send(ctx, completionRequest{
		User:        BuildCompatibilityPrompt(instructions, selectQuery, updateQuery),
		Temperature: 0,
		MaxTokens:   compatibilityMaxTokens,
	})
	if err != nil {
		return false, "", err
	}

	valid, explanation := ParseVerdict(resp.Text)
	return valid, explanation, nil
}

// Cost estimates the price of a call in US dollars.
func (p *Provider) Cost(inputTokens, outputTokens int) float64 {
	return p.prices.lookup(p.model, p.fallback).Cost(inputTokens, outputTokens)
}

func (p *Provider) send(ctx context.Context, req completionRequest) (completionResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.wait(ctx); err != nil {
			return completionResponse{}, err
		}
	}
	return p.client.complete(ctx, req)
}

// APIError is returned when a vendor answers with a non-2xx status.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code for retry classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends payload to url and decodes a successful answer into out.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
