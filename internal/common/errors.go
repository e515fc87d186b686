// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Common application errors.
var (
	// Retry classification errors.
	ErrRateLimit = errors.New("rate limit exceeded")
	ErrTimeout   = errors.New("request timed out")
	ErrFatal     = errors.New("fatal error")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorKind is the retry category of an error.
type ErrorKind int

// Error kinds. Only KindRateLimit and KindTimeout are retried.
const (
	KindOther ErrorKind = iota
	KindRateLimit
	KindTimeout
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindFatal:
		return "fatal"
	default:
		return "other"
	}
}

// Retryable reports whether errors of this kind should be retried.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimit || k == KindTimeout
}

// RetryableError marks an error as belonging to a retryable category.
// Its message is the message of the wrapped error.
type RetryableError struct {
	Err  error
	Kind ErrorKind
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrRateLimit and ErrTimeout by kind.
func (e *RetryableError) Is(target error) bool {
	switch target {
	case ErrRateLimit:
		return e.Kind == KindRateLimit
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	HTTPStatus() int
}

// UserError carries a short message meant for the terminal alongside the
// underlying error, which is what gets logged.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message for the user. err may be nil.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Classify determines the retry category of err.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrFatal) {
		return KindFatal
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		switch coder.HTTPStatus() {
		case 429:
			return KindRateLimit
		case 408, 504:
			return KindTimeout
		case 401, 403:
			return KindFatal
		}
	}

	if errors.Is(err, ErrRateLimit) {
		return KindRateLimit
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	typeName := strings.ToLower(fmt.Sprintf("%T", err))
	message := strings.ToLower(err.Error())

	if strings.Contains(typeName, "rate") || strings.Contains(message, "rate") || strings.Contains(message, "429") {
		return KindRateLimit
	}
	if strings.Contains(typeName, "timeout") || strings.Contains(message, "timeout") {
		return KindTimeout
	}

	return KindOther
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}
