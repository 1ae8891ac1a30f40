package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrQuotaExceeded signals that the monthly plan limit is exhausted.
	// It is a denial, not a failure: callers short-circuit without retrying.
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	// ErrAuthFailed signals that the posting platform rejected the credentials.
	ErrAuthFailed = errors.New("platform authentication failed")
	// ErrRateLimited signals a rate limit hit on the posting platform.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmptyGeneration signals that the content service returned no text.
	ErrEmptyGeneration = errors.New("empty generation response")
	// ErrNoCandidate signals that post discovery found nothing to reply to.
	ErrNoCandidate = errors.New("no candidate post found")
	// ErrInstanceRunning signals that another live instance holds the lease.
	ErrInstanceRunning = errors.New("another instance appears to be running")
	// ErrGenerationFailed signals a content-generation provider failure.
	ErrGenerationFailed = errors.New("content generation failed")
)

// RateLimitError wraps ErrRateLimited with the server-supplied pause.
// RetryAfter is zero when the response carried no Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// NewRateLimited creates a rate-limit error with the given pause hint.
func NewRateLimited(retryAfter time.Duration) error {
	return &RateLimitError{RetryAfter: retryAfter}
}
