package llm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const yandexBaseURL = "https://llm.api.cloud.yandex.net"

var yandexPrices = priceTable{
	"yandexgpt":      {Input: 0.0002, Output: 0.0004},
	"yandexgpt-lite": {Input: 0.00004, Output: 0.00008},
}

var yandexFallback = Pricing{Input: 0.0002, Output: 0.0004}

// yandexClient talks to the YandexGPT foundation models API.
type yandexClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	modelURI   string
}

// newYandexClient creates a new YandexGPT API client.
func newYandexClient(cfg Config) (*yandexClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("yandex API key is required")
	}
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("yandex folder ID is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = yandexBaseURL
	}

	return &yandexClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelURI:   fmt.Sprintf("gpt://%s/%s/latest", cfg.FolderID, cfg.Model),
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// tokenCount decodes counters that Yandex sends as JSON strings.
type tokenCount int

func (n *tokenCount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid token count %q: %w", raw, err)
	}
	*n = tokenCount(v)
	return nil
}

// yandexResponse represents the YandexGPT completion response structure.
type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message struct {
				Role string `json:"role"`
				Text string `json:"text"`
			} `json:"message"`
			Status string `json:"status"`
		} `json:"alternatives"`
		Usage struct {
			InputTextTokens  tokenCount `json:"inputTextTokens"`
			CompletionTokens tokenCount `json:"completionTokens"`
		} `json:"usage"`
	} `json:"result"`
}

func (c *yandexClient) complete(ctx context.Context, req completionRequest) (completionResponse, error) {
	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "text": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "text": req.User})

	requestBody := map[string]any{
		"modelUri": c.modelURI,
		"completionOptions": map[string]any{
			"stream":      false,
			"temperature": req.Temperature,
			"maxTokens":   strconv.Itoa(req.MaxTokens),
		},
		"messages": messages,
	}

	headers := map[string]string{"Authorization": "Api-Key " + c.apiKey}

	var response yandexResponse
	if err := postJSON(ctx, c.httpClient, "yandex", c.baseURL+"/foundationModels/v1/completion", headers, requestBody, &response); err != nil {
		return completionResponse{}, err
	}

	var text string
	if len(response.Result.Alternatives) > 0 {
		text = response.Result.Alternatives[0].Message.Text
	}

	return completionResponse{
		Text:         text,
		InputTokens:  int(response.Result.Usage.InputTextTokens),
		OutputTokens: int(response.Result.Usage.CompletionTokens),
	}, nil
}
