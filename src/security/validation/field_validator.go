// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

// Constants for lengths remain here
const (
	MaxFilenameLength  = 255
	MaxQuestionLength  = 2000
	MaxSessionIDLength = 64
)

var (
	documentIDRegex = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	sessionIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateFilename rejects empty names, path separators, and traversal sequences.
func ValidateFilename(s string) error {
	if err := ValidateStringNotEmpty(s, "filename"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxFilenameLength, "filename"); err != nil {
		return err
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return fmt.Errorf("%w: filename contains path traversal characters", ErrValidationFailed)
	}
	return nil
}

// ValidateDocumentID checks a string is a lowercase UUID.
func ValidateDocumentID(s string) error {
	if !documentIDRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: document ID is not a valid identifier", ErrValidationFailed)
	}
	return nil
}

// ValidateSessionID checks the client session identifier format.
func ValidateSessionID(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "session ID"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(trimmed, MaxSessionIDLength, "session ID"); err != nil {
		return err
	}
	if !sessionIDRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: session ID must be alphanumeric with hyphens/underscores", ErrValidationFailed)
	}
	return nil
}

// ValidateQuestion checks a chat question is present and within bounds.
func ValidateQuestion(s string) error {
	if err := ValidateStringNotEmpty(s, "question"); err != nil {
		return err
	}
	return ValidateStringMaxLength(s, MaxQuestionLength, "question")
}
