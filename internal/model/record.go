// Package model contains the core data types that flow through the pipeline.
package model

// Record is a single row fetched from a source, waiting to be transformed.
type Record struct {
	// ID is the value of the source's primary key column. It must be comparable.
	ID       any
	Metadata map[string]any
	Content  string
}

// ProcessingResult is the outcome of pushing one Record through a provider.
//
// Success implies TransformedContent is set and passed validation.
// A failed result always carries Error. TransformedContent may still be
// present on a failed result when the provider answered but validation
// rejected the text.
type ProcessingResult struct {
	RecordID           any
	TransformedContent *string
	Error              *string
	OriginalContent    string
	TokensUsed         int
	Cost               float64
	Success            bool
}

// Transformed returns the transformed text, or "" when none was produced.
func (r ProcessingResult) Transformed() string {
	if r.TransformedContent == nil {
		return ""
	}
	return *r.TransformedContent
}

// ErrorMessage returns the error text, or "" for successful results.
func (r ProcessingResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Completion is what a provider returns for a single transformation call.
type Completion struct {
	Text string
	// TokensUsed is the sum of input and output tokens.
	TokensUsed int
	// Cost is an estimate in US dollars.
	Cost float64
}
