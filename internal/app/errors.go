package service

import "errors"

// Sentinel kinds for service errors. Not-found conditions are reported with
// the repository sentinels.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrBackpressure       = errors.New("analysis queue unavailable")
	ErrResumeNotProcessed = errors.New("resume has not been processed yet")
	ErrAnalysisFailed     = errors.New("resume analysis failed")
	ErrNotStarted         = errors.New("service not started")
)
