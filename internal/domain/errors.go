package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrServiceFailure    = errors.New("ai service failure")
	ErrTimeout           = errors.New("ai request timed out")
	ErrThrottled         = errors.New("ai request throttled")
	ErrMalformedResponse = errors.New("malformed ai response")
	ErrConfiguration     = errors.New("invalid configuration")
)

// ServiceError is a network or HTTP failure talking to the AI service.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("ai service failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ai service failure: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrServiceFailure }

// TimeoutError means a single request attempt exceeded the configured timeout.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ai request timed out after %s", e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ThrottledError means the local rate budget was not available before the caller's deadline.
type ThrottledError struct {
	Wait time.Duration
	Err  error
}

func (e *ThrottledError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai request throttled (needed %s): %v", e.Wait, e.Err)
	}
	return fmt.Sprintf("ai request throttled (needed %s)", e.Wait)
}

func (e *ThrottledError) Unwrap() error { return e.Err }

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }

// MalformedResponseError is AI output that violates the scoring contract.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return "malformed ai response: " + e.Reason
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// ConfigurationError is fatal at startup and never recovered at runtime.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServiceFailure) || errors.Is(err, ErrTimeout)
}
