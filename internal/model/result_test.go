package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultConstructors(t *testing.T) {
	record := Record{ID: 42, Content: "original text"}
	completion := Completion{Text: "transformed text", TokensUsed: 120, Cost: 0.0021}

	t.Run("success", func(t *testing.T) {
		r := NewSuccess(record, completion)
		assert.True(t, r.Success)
		assert.Equal(t, 42, r.RecordID)
		require.NotNil(t, r.TransformedContent)
		assert.Equal(t, "transformed text", r.Transformed())
		assert.Nil(t, r.Error)
		assert.Equal(t, 120, r.TokensUsed)
		assert.InDelta(t, 0.0021, r.Cost, 1e-9)
	})

	t.Run("validation failure keeps text and usage", func(t *testing.T) {
		r := NewValidationFailure(record, completion, "Response too short (min 10 chars)")
		assert.False(t, r.Success)
		assert.Equal(t, "transformed text", r.Transformed())
		assert.Equal(t, "Validation failed: Response too short (min 10 chars)", r.ErrorMessage())
		assert.Equal(t, 120, r.TokensUsed)
	})

	t.Run("failure has no text or usage", func(t *testing.T) {
		r := NewFailure(record, errors.New("boom"))
		assert.False(t, r.Success)
		assert.Nil(t, r.TransformedContent)
		assert.Equal(t, "boom", r.ErrorMessage())
		assert.Zero(t, r.TokensUsed)
		assert.Zero(t, r.Cost)
		assert.Equal(t, "original text", r.OriginalContent)
	})
}
