package llm

import (
	"fmt"
	"strings"
)

// Markers replaced in compatibility instructions.
const (
	selectQueryMarker = "{select_query}"
	updateQueryMarker = "{update_query}"
)

// DefaultCompatibilityPrompt asks the model to compare a read query with a
// write query.
const DefaultCompatibilityPrompt = `You are a SQL expert. Check that a SELECT query and an UPDATE query work with the same database field.

The SELECT query reads text from a field. The UPDATE query writes a transformed version of that text back. They are compatible only when the field read by the SELECT is the field written by the UPDATE.

SELECT query:
{select_query}

UPDATE query:
{update_query}

IMPORTANT: Start your response with EXACTLY one word: either "VALID" or "INVALID".
Then, on a new line, give your analysis.`

// BuildCompatibilityPrompt embeds both queries into instructions, or into
// DefaultCompatibilityPrompt when instructions is empty. Instructions
// without markers get the queries appended.
func BuildCompatibilityPrompt(instructions, selectQuery, updateQuery string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultCompatibilityPrompt
	}

	if strings.Contains(instructions, selectQueryMarker) || strings.Contains(instructions, updateQueryMarker) {
		return strings.NewReplacer(
			selectQueryMarker, selectQuery,
			updateQueryMarker, updateQuery,
		).Replace(instructions)
	}

	return fmt.Sprintf(`%s

SELECT query:
%s

UPDATE query:
%s

Answer with "VALID" if the queries work with the same field, or "INVALID: <reason>" if not.`, instructions, selectQuery, updateQuery)
}

// ParseVerdict reads the model's answer. Only a first word of VALID,
// in any case, counts as a positive verdict. The explanation is the whole
// trimmed answer.
func ParseVerdict(answer string) (bool, string) {
	explanation := strings.TrimSpace(answer)

	fields := strings.Fields(explanation)
	if len(fields) == 0 {
		return false, explanation
	}

	first := strings.ToUpper(strings.Trim(fields[0], ":.,;!*\"'`"))
	return first == "VALID", explanation
}
