package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// RateLimitError indicates a completion provider returned HTTP 429 or an
// equivalent quota error.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RetryDelay implements retry.Delayer. It is zero when the provider sent no
// Retry-After hint.
func (e *RateLimitError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// NewRateLimitError creates a RateLimitError. retryAfterSecs <= 0 means the
// provider gave no hint.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs < 0 {
		retryAfterSecs = 0
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// PermanentError wraps a provider failure that will not succeed on retry,
// such as an authentication error or a rejected request.
type PermanentError struct {
	Err      error
	Provider string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a PermanentError.
func NewPermanentError(provider string, err error) *PermanentError {
	return &PermanentError{Err: err, Provider: provider}
}

// TruncatedError reports a completion that stopped at the output token
// limit. Text holds the partial output.
type TruncatedError struct {
	Provider string
	Reason   string
	Model    string
	Text     string
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s: output truncated (%s): response exceeded output token limit", e.Provider, e.Reason)
}

// NewTruncatedError creates a TruncatedError.
func NewTruncatedError(provider, reason, model, text string) *TruncatedError {
	return &TruncatedError{Provider: provider, Reason: reason, Model: model, Text: text}
}

// IsRetryable reports whether a completion error is worth another attempt.
// Permanent and truncated responses are not: the same request gets the same
// answer.
func IsRetryable(err error) bool {
	var perm *PermanentError
	var trunc *TruncatedError
	return !errors.As(err, &perm) && !errors.As(err, &trunc)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// StatusError classifies a non-200 provider HTTP response: 429 becomes a
// RateLimitError, other 4xx responses except 408 a PermanentError, and
// everything else a plain retryable error.
func StatusError(provider string, status int, retryAfter string, body []byte) error {
	err := fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))
	switch {
	case status == 429:
		return NewRateLimitError(provider, err, ParseRetryAfterHeader(retryAfter))
	case status >= 400 && status < 500 && status != 408:
		return NewPermanentError(provider, err)
	default:
		return err
	}
}
