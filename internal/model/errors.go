package model

import (
	"errors"
	"fmt"
	"time"
)

// Failures that repeating the same call cannot fix. Retry logic never retries
// an error wrapping one of these.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidResponse = errors.New("invalid response")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// FetchError reports a page that could not be fetched after all retries.
// It is fatal for the run: a missing page would leave a silent gap.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedOfferError reports a raw offer missing a required field.
type MalformedOfferError struct {
	Page  int
	Field string
}

func (e *MalformedOfferError) Error() string {
	return fmt.Sprintf("malformed offer on page %d: missing %s", e.Page, e.Field)
}

// MatchingProtocolError reports a matching-service response that does not
// satisfy the verdict contract for its batch.
type MatchingProtocolError struct {
	Batch  int
	Reason string
	Err    error
}

func (e *MatchingProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch %d: protocol error: %s: %v", e.Batch, e.Reason, e.Err)
	}
	return fmt.Sprintf("batch %d: protocol error: %s", e.Batch, e.Reason)
}

func (e *MatchingProtocolError) Unwrap() error {
	return e.Err
}

// StorePersistenceError reports a failure reading or writing the match store.
type StorePersistenceError struct {
	Op   string // "load", "save" or "lock"
	Path string
	Err  error
}

func (e *StorePersistenceError) Error() string {
	return fmt.Sprintf("match store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorePersistenceError) Unwrap() error {
	return e.Err
}

// ReportRenderError reports a report that could not be produced from the store state.
type ReportRenderError struct {
	Err error
}

func (e *ReportRenderError) Error() string {
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *ReportRenderError) Unwrap() error {
	return e.Err
}
