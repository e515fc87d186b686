// Package validation checks LLM responses before they are written back.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length limits applied to every response.
const (
	MinResponseLength = 10
	MaxResponseLength = 50000
)

// Check inspects a response. It returns false and a reason when the response
// should be rejected.
type Check func(response string) (bool, string)

// Validator runs checks in order; the first failing check wins.
type Validator struct {
	checks []Check
}

// NewValidator returns a validator with the length checks followed by extra.
func NewValidator(extra ...Check) *Validator {
	checks := []Check{MinLength(MinResponseLength), MaxLength(MaxResponseLength)}
	checks = append(checks, extra...)
	return &Validator{checks: checks}
}

// NewValidatorWithChecks returns a validator that runs only checks.
func NewValidatorWithChecks(checks ...Check) *Validator {
	return &Validator{checks: checks}
}

// Validate reports whether response passes every check. When it does not,
// the reason names the first failed check.
func (v *Validator) Validate(response string) (bool, string) {
	for _, check := range v.checks {
		if ok, reason := check(response); !ok {
			return false, reason
		}
	}
	return true, ""
}

// ValidateResponse applies the default length checks.
func ValidateResponse(response string) (bool, string) {
	return defaultValidator.Validate(response)
}

var defaultValidator = NewValidator()

// MinLength rejects responses shorter than n characters once surrounding
// whitespace is trimmed.
func MinLength(n int) Check {
	return func(response string) (bool, string) {
		if utf8.RuneCountInString(strings.TrimSpace(response)) < n {
			return false, fmt.Sprintf("Response too short (min %d chars)", n)
		}
		return true, ""
	}
}

// MaxLength rejects responses longer than n characters.
func MaxLength(n int) Check {
	return func(response string) (bool, string) {
		if utf8.RuneCountInString(response) > n {
			return false, fmt.Sprintf("Response too long (max %d chars)", n)
		}
		return true, ""
	}
}

// BalancedAngleBrackets rejects responses where the count of '<' differs
// from the count of '>'. It is a coarse signal for unclosed HTML tags and
// will also trip on text that uses comparison operators.
func BalancedAngleBrackets(response string) (bool, string) {
	if strings.Count(response, "<") != strings.Count(response, ">") {
		return false, "Unclosed HTML tags detected"
	}
	return true, ""
}
