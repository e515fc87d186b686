// Package storage opens the database connections used by sources and sinks.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// ValidateString ensures a string parameter is not empty.
func ValidateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// TrimStatement strips surrounding whitespace and trailing semicolons so a
// statement can be embedded in another one.
func TrimStatement(query string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), ";"))
}
