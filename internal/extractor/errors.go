package extractor

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNoFields is returned when a provider answered but populated no field.
var ErrNoFields = errors.New("model returned no fields")

// defaultRetryAfter applies when a 429 carries no usable Retry-After.
const defaultRetryAfter = 60

// RateLimitError is returned by a strategy whose provider answered HTTP 429.
// The chain keeps that strategy's circuit open for RetryAfter.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited for %s: %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// NewRateLimitError wraps err. A non-positive retryAfterSecs means 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = defaultRetryAfter
	}
	return &RateLimitError{
		Provider:   provider,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Err:        err,
	}
}

// ParseRetryAfterHeader reads a Retry-After value given either as delay
// seconds or as an HTTP date. Anything else, including a date in the past,
// yields 0.
func ParseRetryAfterHeader(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return max(secs, 0)
	}
	at, err := http.ParseTime(val)
	if err != nil {
		return 0
	}
	return max(int(time.Until(at).Seconds()), 0)
}

// Truncate shortens s to at most maxLen bytes for error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
