package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const anthropicBaseURL = "https://api.anthropic.com"

var anthropicPrices = priceTable{
	"claude-opus-4-5":   {Input: 0.005, Output: 0.025},
	"claude-sonnet-4-5": {Input: 0.003, Output: 0.015},
	"claude-haiku-4-5":  {Input: 0.001, Output: 0.005},
}

var anthropicFallback = Pricing{Input: 0.003, Output: 0.015}

// anthropicClient talks to the Anthropic messages API.
type anthropicClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	return &anthropicClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      cfg.Model,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *anthropicClient) complete(ctx context.Context, req completionRequest) (completionResponse, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": req.User,
			},
		},
	}
	if req.System != "" {
		requestBody["system"] = req.System
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var response anthropicResponse
	if err := postJSON(ctx, c.httpClient, "anthropic", c.baseURL+"/v1/messages", headers, requestBody, &response); err != nil {
		return completionResponse{}, err
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return completionResponse{
		Text:         text.String(),
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}
