package models

import (
	"errors"
	"fmt"
)

// Error codes used in events, API responses and internal error handling.
const (
	ErrCodeValidation     = "VALIDATION_FAILED"
	ErrCodeSessionInvalid = "SESSION_INVALID"
	ErrCodeItemExtraction = "ITEM_EXTRACTION_FAILED"
	ErrCodeTimeout        = "SCRAPE_TIMEOUT"
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"
	ErrCodeInitTimeout    = "INIT_TIMEOUT"
	ErrCodeFatal          = "FATAL_RUN_ERROR"

	// API-only codes.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses and error events.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is matches another *ScrapeError by code, so sentinel errors built with
// NewScrapeError can be used with errors.Is.
func (e *ScrapeError) Is(target error) bool {
	t, ok := target.(*ScrapeError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrorCode returns the code of the first ScrapeError in err's chain,
// or ErrCodeInternal when there is none.
func ErrorCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrCodeValidation
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries a ScrapeError with the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Err
	}
	return false
}

// DetailOf converts any error into an ErrorDetail.
func DetailOf(err error) *ErrorDetail {
	var se *ScrapeError
	if errors.As(err, &se) {
		return &ErrorDetail{Code: se.Code, Message: err.Error()}
	}
	return &ErrorDetail{Code: ErrorCode(err), Message: err.Error()}
}

// ValidationError reports a malformed query. Query is the zero-based index
// of the offending query in the batch.
type ValidationError struct {
	Query  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: query[%d]: %s: %s", ErrCodeValidation, e.Query, e.Field, e.Reason)
}
