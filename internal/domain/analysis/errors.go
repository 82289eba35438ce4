package analysis

import (
	"errors"

	"github.com/okian/resumatch/internal/domain/extract"
	"github.com/okian/resumatch/internal/domain/scoring"
)

// Sentinel kinds for task failures.
var (
	ErrTransportDecode   = errors.New("transport decode failed")
	ErrRoleNotFound      = errors.New("role not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrEncoder           = errors.New("encoder rejected the resume")
)

// Failure reasons stored on failed candidate records.
const (
	ReasonTransportDecode   = "transport_decode"
	ReasonDocumentFormat    = "document_format"
	ReasonRoleNotFound      = "role_not_found"
	ReasonDimensionMismatch = "embedding_dimension_mismatch"
	ReasonEncoder           = "encoder"
	ReasonInternal          = "internal"
)

type retriableError struct {
	err error
}

func (e *retriableError) Error() string { return e.err.Error() }
func (e *retriableError) Unwrap() error { return e.err }

// Retriable marks err as transient: the record stays pending and the task
// should be delivered again.
func Retriable(err error) error {
	if err == nil {
		return nil
	}
	return &retriableError{err: err}
}

// IsRetriable reports whether err was marked with Retriable.
func IsRetriable(err error) bool {
	var r *retriableError
	return errors.As(err, &r)
}

// FailureReason maps a fatal task error to the reason stored on the record.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrTransportDecode):
		return ReasonTransportDecode
	case errors.Is(err, extract.ErrDocumentFormat):
		return ReasonDocumentFormat
	case errors.Is(err, ErrRoleNotFound):
		return ReasonRoleNotFound
	case errors.Is(err, scoring.ErrDimensionMismatch):
		return ReasonDimensionMismatch
	case errors.Is(err, ErrEncoder):
		return ReasonEncoder
	default:
		return ReasonInternal
	}
}
