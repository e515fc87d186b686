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

func TestNewYandexClientRequiresFolder(t *testing.T) {
	_, err := newYandexClient(Config{APIKey: "k", Model: "yandexgpt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder")
}

func TestYandexExecute(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foundationModels/v1/completion", r.URL.Path)
		assert.Equal(t, "Api-Key test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"result": {
				"alternatives": [{"message": {"role": "assistant", "text": "Privet"}, "status": "ALTERNATIVE_STATUS_FINAL"}],
				"usage": {"inputTextTokens": "1000", "completionTokens": "1000", "totalTokens": "2000"}
			}
		}`))
	}))
	defer server.Close()

	p, err := NewProvider(Config{
		Provider: "yandex",
		APIKey:   "test-key",
		FolderID: "b1gfolder",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	completion, err := p.Execute(context.Background(), "Translate", "Hello")
	require.NoError(t, err)

	assert.Equal(t, "Privet", completion.Text)
	assert.Equal(t, 2000, completion.TokensUsed)
	assert.InDelta(t, 0.0002+0.0004, completion.Cost, 1e-9)
	assert.Equal(t, "gpt://b1gfolder/yandexgpt/latest", got["modelUri"])

	opts, ok := got["completionOptions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "4096", opts["maxTokens"])

	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hello", messages[1].(map[string]any)["text"])
}

func TestTokenCountUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  tokenCount
		err   bool
	}{
		{input: `"42"`, want: 42},
		{input: `17`, want: 17},
		{input: `null`, want: 0},
		{input: `"abc"`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n tokenCount
			err := json.Unmarshal([]byte(tt.input), &n)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}
