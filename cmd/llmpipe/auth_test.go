package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProvider(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercase", input: "openai", want: "openai"},
		{name: "mixed case and spaces", input: " Anthropic ", want: "anthropic"},
		{name: "yandex", input: "yandex", want: "yandex"},
		{name: "unknown", input: "gemini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkProvider(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown provider")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadKey(t *testing.T) {
	key, err := readKey(strings.NewReader("sk-test-123\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", key)

	key, err = readKey(strings.NewReader("  sk-no-newline  "))
	require.NoError(t, err)
	assert.Equal(t, "sk-no-newline", key)

	_, err = readKey(strings.NewReader("\n"))
	require.Error(t, err)
}
