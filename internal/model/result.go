package model

// NewSuccess builds a successful result for record.
func NewSuccess(record Record, completion Completion) ProcessingResult {
	text := completion.Text
	return ProcessingResult{
		RecordID:           record.ID,
		Success:            true,
		OriginalContent:    record.Content,
		TransformedContent: &text,
		TokensUsed:         completion.TokensUsed,
		Cost:               completion.Cost,
	}
}

// NewValidationFailure builds a failed result that still carries the text
// the provider produced and the usage it was billed for.
func NewValidationFailure(record Record, completion Completion, reason string) ProcessingResult {
	text := completion.Text
	msg := "Validation failed: " + reason
	return ProcessingResult{
		RecordID:           record.ID,
		Success:            false,
		OriginalContent:    record.Content,
		TransformedContent: &text,
		TokensUsed:         completion.TokensUsed,
		Cost:               completion.Cost,
		Error:              &msg,
	}
}

// NewFailure builds a failed result for a record whose provider call never
// completed.
func NewFailure(record Record, err error) ProcessingResult {
	msg := err.Error()
	return ProcessingResult{
		RecordID:        record.ID,
		Success:         false,
		OriginalContent: record.Content,
		Error:           &msg,
	}
}
