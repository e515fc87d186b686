package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCompatibilityPrompt(t *testing.T) {
	sel := "SELECT id, body AS content FROM notes"
	upd := "UPDATE notes SET body = :content WHERE id = :id"

	t.Run("default template", func(t *testing.T) {
		prompt := BuildCompatibilityPrompt("", sel, upd)
		assert.Contains(t, prompt, sel)
		assert.Contains(t, prompt, upd)
		assert.NotContains(t, prompt, "{select_query}")
	})

	t.Run("custom template with markers", func(t *testing.T) {
		prompt := BuildCompatibilityPrompt("R: {select_query} W: {update_query}", sel, upd)
		assert.Equal(t, "R: "+sel+" W: "+upd, prompt)
	})

	t.Run("custom template without markers gets queries appended", func(t *testing.T) {
		prompt := BuildCompatibilityPrompt("Check these carefully.", sel, upd)
		assert.Contains(t, prompt, "Check these carefully.")
		assert.Contains(t, prompt, "SELECT query:\n"+sel)
		assert.Contains(t, prompt, "UPDATE query:\n"+upd)
	})
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		answer string
		valid  bool
	}{
		{answer: "VALID\nBoth touch notes.body", valid: true},
		{answer: "valid. looks fine", valid: true},
		{answer: "**VALID**", valid: true},
		{answer: "INVALID: different columns", valid: false},
		{answer: "Invalid", valid: false},
		{answer: "The queries are VALID", valid: false},
		{answer: "   ", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			valid, explanation := ParseVerdict(tt.answer)
			assert.Equal(t, tt.valid, valid)
			assert.NotContains(t, explanation, "\t")
		})
	}
}
