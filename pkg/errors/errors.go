package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors.
type ErrorCode string

const (
	CodeConfig          ErrorCode = "CONFIG_ERROR"
	CodeLLM             ErrorCode = "LLM_ERROR"
	CodeSearch          ErrorCode = "SEARCH_ERROR"
	CodeExtractionEmpty ErrorCode = "EXTRACTION_EMPTY"
	CodeTestMismatch    ErrorCode = "TEST_MISMATCH"
)

// AppError carries a code, a human-readable message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError reports missing or malformed configuration. Fatal at startup.
func NewConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfig,
		Message: message,
	}
}

// NewLLMError reports a failed chat-completions call. Aborts the pipeline.
func NewLLMError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeLLM,
		Message: message,
		Err:     cause,
	}
}

// NewSearchError reports exhausted retries against the search endpoint.
func NewSearchError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeSearch,
		Message: message,
		Err:     cause,
	}
}

// NewExtractionEmpty reports that Reason produced no keyphrases after its
// retry. Recoverable: the pipeline continues with an empty query.
func NewExtractionEmpty(message string) *AppError {
	return &AppError{
		Code:    CodeExtractionEmpty,
		Message: message,
	}
}

// NewTestMismatch reports a failed test-file expectation.
func NewTestMismatch(message string) *AppError {
	return &AppError{
		Code:    CodeTestMismatch,
		Message: message,
	}
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsConfigError(err error) bool     { return is(err, CodeConfig) }
func IsLLMError(err error) bool        { return is(err, CodeLLM) }
func IsSearchError(err error) bool     { return is(err, CodeSearch) }
func IsExtractionEmpty(err error) bool { return is(err, CodeExtractionEmpty) }
func IsTestMismatch(err error) bool    { return is(err, CodeTestMismatch) }
