package api

import (
	"errors"
	"net/http"

	"github.com/okian/resumatch/internal/adapters/repository"
	service "github.com/okian/resumatch/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrFileTooLarge = errors.New("file too large")
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeFileTooLarge       = "file_too_large"
	codeRoleNotFound       = "role_not_found"
	codeCandidateNotFound  = "candidate_not_found"
	codeResumeNotProcessed = "resume_not_processed"
	codeAnalysisFailed     = "analysis_failed"
	codeBackpressure       = "backpressure"
	codeUnavailable        = "unavailable"
	codeInternal           = "internal_error"
)

// classify maps service and repository errors to an HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, codeFileTooLarge
	case errors.Is(err, repository.ErrRoleNotFound):
		return http.StatusNotFound, codeRoleNotFound
	case errors.Is(err, repository.ErrCandidateNotFound):
		return http.StatusNotFound, codeCandidateNotFound
	case errors.Is(err, service.ErrResumeNotProcessed):
		return http.StatusConflict, codeResumeNotProcessed
	case errors.Is(err, service.ErrAnalysisFailed):
		return http.StatusUnprocessableEntity, codeAnalysisFailed
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
