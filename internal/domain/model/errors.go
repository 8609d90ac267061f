package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for a run. Adapters wrap these with %w so callers
// can match them with errors.Is.
var (
	ErrMissingFile        = errors.New("missing file")
	ErrMalformedInput     = errors.New("malformed input")
	ErrInvalidWeek        = errors.New("invalid week")
	ErrRemoteUnavailable  = errors.New("remote unavailable")
	ErrIncompleteResponse = errors.New("incomplete response")
	ErrNoData             = errors.New("no reference data")
	ErrModelNotFound      = errors.New("model not found")
	ErrModelCorrupt       = errors.New("model corrupt")
	ErrWrite              = errors.New("write failed")
	ErrRemoteRejected     = errors.New("remote rejected")
)

// RejectedError reports a non-2xx answer from the result endpoint.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrRemoteRejected, e.Status, e.Body)
}

// Is makes errors.Is(err, ErrRemoteRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// Kind returns a short metric-friendly name for a known error kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFile):
		return "missing_file"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrInvalidWeek):
		return "invalid_week"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrIncompleteResponse):
		return "incomplete_response"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrModelCorrupt):
		return "model_corrupt"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrRemoteRejected):
		return "remote_rejected"
	default:
		return "unknown"
	}
}
