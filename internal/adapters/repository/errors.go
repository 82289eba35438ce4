package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrAlreadyAnalyzed   = errors.New("candidate already left the pending state")
	ErrInvalidLimit      = errors.New("invalid list limit")
	ErrStore             = errors.New("store operation failed")
)
