package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const openAIBaseURL = "https://api.openai.com"

var openAIPrices = priceTable{
	"gpt-4":               {Input: 0.03, Output: 0.06},
	"gpt-4-turbo":         {Input: 0.01, Output: 0.03},
	"gpt-4-turbo-preview": {Input: 0.01, Output: 0.03},
	"gpt-4o":              {Input: 0.005, Output: 0.015},
	"gpt-4o-mini":         {Input: 0.00015, Output: 0.0006},
	"gpt-3.5-turbo":       {Input: 0.0005, Output: 0.0015},
}

var openAIFallback = Pricing{Input: 0.01, Output: 0.03}

// openAIClient talks to the OpenAI chat completions API.
type openAIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	return &openAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      cfg.Model,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAIClient) complete(ctx context.Context, req completionRequest) (completionResponse, error) {
	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.User})

	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var response openAIResponse
	if err := postJSON(ctx, c.httpClient, "OpenAI", c.baseURL+"/v1/chat/completions", headers, requestBody, &response); err != nil {
		return completionResponse{}, err
	}

	if len(response.Choices) == 0 {
		return completionResponse{}, fmt.Errorf("no completion choices returned")
	}

	return completionResponse{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}, nil
}
