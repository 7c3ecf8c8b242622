package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks a missing or malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrHostNotAllowed marks a lookup URL outside the allow-listed hosts.
	ErrHostNotAllowed = errors.New("host not allowed")
	// ErrUpstreamUnavailable marks a failed or timed out call to a remote source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrResolutionFailed marks a point lookup that recovered no image at all.
	ErrResolutionFailed = errors.New("resolution failed")
	// ErrUnknownCatalog marks a catalog id that is not configured.
	ErrUnknownCatalog = errors.New("unknown catalog")
)

// NewInvalidRequest returns an ErrInvalidRequest carrying a caller-facing message.
func NewInvalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

// UpstreamError wraps a failure of one remote source.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

// Unwrap lets errors.Is match both ErrUpstreamUnavailable and the cause.
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// NewUpstreamError wraps err as an UpstreamError for source.
func NewUpstreamError(source string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Source: source, Err: err}
}

// ResolutionError reports a point lookup that found no images. Title holds
// whatever partial title was recovered.
type ResolutionError struct {
	URL   string
	Title string
	Cause error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no images found for %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("no images found for %s", e.URL)
}

// Unwrap lets errors.Is match ErrResolutionFailed and the cause, if any.
func (e *ResolutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrResolutionFailed}
	}
	return []error{ErrResolutionFailed, e.Cause}
}
