package models

import (
	"errors"
	"fmt"
)

// Gather error codes. Navigation steps never produce these on their own;
// a skipped step is reported in the StepOutcome list instead.
const (
	// ErrCodeTableNotFound means the page never reached a state where the
	// event table exists. It is the only fatal extraction condition.
	ErrCodeTableNotFound = "TABLE_NOT_FOUND"

	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"

	// ErrCodeBusy is returned when the single browser session is already
	// owned by another gather.
	ErrCodeBusy       = "GATHER_BUSY"
	ErrCodeSinkFailed = "SINK_FAILED"
)

// Request error codes, raised by the HTTP layer before a gather starts.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the error object in a GatherResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError tags an error with one of the codes above. Message is safe to
// show to API callers; Err keeps the underlying cause for logs and
// errors.Is.
type ScrapeError struct {
	Code    string
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// AsScrapeError returns the first ScrapeError in err's chain. Untagged
// errors come back as INTERNAL_ERROR so callers always have a code.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}

func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
