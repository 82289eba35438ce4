package embedding

import "errors"

var (
	// ErrUnavailable means a remote encoder could not be reached. Callers may retry.
	ErrUnavailable = errors.New("embedding encoder unavailable")
	// ErrClosed is returned by a Handle after Close.
	ErrClosed = errors.New("embedding handle closed")
	// ErrInit wraps a factory failure. The Handle keeps returning it.
	ErrInit = errors.New("init encoder")
)
