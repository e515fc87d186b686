package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/validation"
)

func TestSequentialStrategy_ProcessRecord(t *testing.T) {
	record := model.Record{ID: 1, Content: "some raw text"}

	tests := []struct {
		execute     func(call int, content string) (model.Completion, error)
		validator   *validation.Validator
		name        string
		wantError   string
		wantText    string
		wantCalls   int
		wantTokens  int
		wantSuccess bool
		wantHasText bool
	}{
		{
			name: "success",
			execute: func(_ int, _ string) (model.Completion, error) {
				return model.Completion{Text: "a perfectly fine answer", TokensUsed: 42, Cost: 0.01}, nil
			},
			wantSuccess: true,
			wantHasText: true,
			wantText:    "a perfectly fine answer",
			wantCalls:   1,
			wantTokens:  42,
		},
		{
			name: "rate limited twice then success",
			execute: func(call int, _ string) (model.Completion, error) {
				if call < 3 {
					return model.Completion{}, errRateLimited
				}
				return model.Completion{Text: "finally transformed", TokensUsed: 5}, nil
			},
			wantSuccess: true,
			wantHasText: true,
			wantText:    "finally transformed",
			wantCalls:   3,
			wantTokens:  5,
		},
		{
			name: "retries exhausted",
			execute: func(_ int, _ string) (model.Completion, error) {
				return model.Completion{}, errors.New("request timeout")
			},
			wantError: "request timeout",
			wantCalls: 3,
		},
		{
			name: "non-retryable error",
			execute: func(_ int, _ string) (model.Completion, error) {
				return model.Completion{}, errors.New("malformed request")
			},
			wantError: "malformed request",
			wantCalls: 1,
		},
		{
			name: "too short",
			execute: func(_ int, _ string) (model.Completion, error) {
				return model.Completion{Text: "tiny", TokensUsed: 3, Cost: 0.0001}, nil
			},
			wantError:   "Validation failed: Response too short (min 10 chars)",
			wantHasText: true,
			wantText:    "tiny",
			wantCalls:   1,
			wantTokens:  3,
		},
		{
			name: "extra check",
			execute: func(_ int, _ string) (model.Completion, error) {
				return model.Completion{Text: "<p unclosed paragraph", TokensUsed: 7}, nil
			},
			validator:   validation.NewValidator(validation.BalancedAngleBrackets),
			wantError:   "Validation failed: Unclosed HTML tags detected",
			wantHasText: true,
			wantText:    "<p unclosed paragraph",
			wantCalls:   1,
			wantTokens:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.execute = tt.execute
			strategy := NewSequentialStrategy(fastRetry, tt.validator, nil)

			result := strategy.ProcessRecord(context.Background(), record, provider, "prompt")

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, 1, result.RecordID)
			assert.Equal(t, "some raw text", result.OriginalContent)
			assert.Equal(t, tt.wantCalls, provider.calls)
			assert.Equal(t, tt.wantTokens, result.TokensUsed)
			assert.Equal(t, tt.wantHasText, result.TransformedContent != nil)
			assert.Equal(t, tt.wantText, result.Transformed())

			if tt.wantSuccess {
				assert.Nil(t, result.Error)
			} else {
				require.NotNil(t, result.Error)
				assert.Equal(t, tt.wantError, result.ErrorMessage())
			}
		})
	}
}

func TestSequentialStrategy_ProcessPreservesOrder(t *testing.T) {
	source := newFakeSource(5)
	provider := newFakeProvider()
	provider.execute = func(call int, content string) (model.Completion, error) {
		if call == 3 {
			return model.Completion{}, errors.New("bad request")
		}
		return model.Completion{Text: strings.ToUpper(content)}, nil
	}
	strategy := NewSequentialStrategy(fastRetry, nil, nil)

	var ids []any
	for result, err := range strategy.Process(context.Background(), source.Records(context.Background()), provider, "p") {
		require.NoError(t, err)
		ids = append(ids, result.RecordID)
		if result.Success {
			assert.NotNil(t, result.TransformedContent)
		} else {
			assert.NotNil(t, result.Error)
		}
	}

	assert.Equal(t, []any{1, 2, 3, 4, 5}, ids)
}

func TestSequentialStrategy_ProcessStopsOnSourceError(t *testing.T) {
	source := newFakeSource(2)
	source.streamErr = errors.New("connection reset")
	strategy := NewSequentialStrategy(fastRetry, nil, nil)

	var results int
	var gotErr error
	for _, err := range strategy.Process(context.Background(), source.Records(context.Background()), newFakeProvider(), "p") {
		if err != nil {
			gotErr = err
			continue
		}
		results++
	}

	assert.Equal(t, 2, results)
	assert.EqualError(t, gotErr, "connection reset")
}

func TestShutdownToken(t *testing.T) {
	var nilToken *ShutdownToken
	assert.False(t, nilToken.Requested())

	token := NewShutdownToken()
	assert.False(t, token.Requested())
	token.Request()
	token.Request()
	assert.True(t, token.Requested())
}
