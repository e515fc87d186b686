package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantName  string
		wantModel string
		wantErr   bool
	}{
		{
			name:      "openai default model",
			config:    Config{Provider: "openai", APIKey: "k"},
			wantName:  "OpenAI",
			wantModel: "gpt-4o",
		},
		{
			name:      "anthropic case insensitive",
			config:    Config{Provider: "Anthropic", APIKey: "k", Model: "claude-haiku-4-5"},
			wantName:  "Anthropic",
			wantModel: "claude-haiku-4-5",
		},
		{
			name:      "yandex",
			config:    Config{Provider: "yandex", APIKey: "k", FolderID: "f"},
			wantName:  "Yandex",
			wantModel: "yandexgpt",
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "mistral", APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "missing key",
			config:  Config{Provider: "openai"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.wantModel, p.Model())
			assert.Nil(t, p.limiter)
		})
	}
}

func TestNewProviderRateLimit(t *testing.T) {
	p, err := NewProvider(Config{Provider: "openai", APIKey: "k", RateLimit: 30})
	require.NoError(t, err)
	require.NotNil(t, p.limiter)
	assert.Equal(t, 30, p.limiter.capacity)
}

func TestNewProviderKeepsZeroTemperature(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "deterministic answer"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5}
		}`))
	}))
	defer server.Close()

	p, err := NewProvider(Config{Provider: "openai", APIKey: "k", BaseURL: server.URL, Temperature: 0})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), "Rewrite", "text")
	require.NoError(t, err)

	require.Contains(t, got, "temperature")
	assert.InDelta(t, 0.0, got["temperature"], 1e-9)
}
