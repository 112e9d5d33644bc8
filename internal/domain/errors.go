package domain

import (
	"errors"
	"fmt"
)

// Archive errors.
var (
	ErrChannelNotFound            = errors.New("channel not found")
	ErrUploadsPlaylistUnavailable = errors.New("uploads playlist unavailable")
	ErrPageFetch                  = errors.New("playlist page fetch failed")
	ErrEngine                     = errors.New("download engine failed")
	ErrAcquisitionFailed          = errors.New("acquisition failed")
	ErrMissingAPIKey              = errors.New("youtube api key not configured")
	ErrRequestNotFound            = errors.New("request not found")
	ErrDuplicateRequest           = errors.New("request already queued or running")
	ErrInvalidRequest             = errors.New("invalid request")
	ErrInvalidState               = errors.New("invalid request state")
)

// PageFetchError is returned when one page of a playlist listing could not
// be fetched.
type PageFetchError struct {
	PlaylistID string
	PageToken  string
	Cause      error
}

func (e *PageFetchError) Error() string {
	token := e.PageToken
	if token == "" {
		token = "<first>"
	}
	return fmt.Sprintf("%s: playlist %s page %s: %v", ErrPageFetch, e.PlaylistID, token, e.Cause)
}

func (e *PageFetchError) Unwrap() []error {
	return []error{ErrPageFetch, e.Cause}
}

// EngineError wraps a failure reported by the download engine for one tier
type EngineError struct {
	URL   string
	Tier  string
	Cause error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s (tier %s): %v", ErrEngine, e.URL, e.Tier, e.Cause)
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Cause}
}

// AcquisitionError is returned when every tier of the quality ladder failed
type AcquisitionError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts: %v", ErrAcquisitionFailed, e.URL, e.Attempts, e.Cause)
}

func (e *AcquisitionError) Unwrap() []error {
	return []error{ErrAcquisitionFailed, e.Cause}
}
