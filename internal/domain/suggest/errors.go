package suggest

import "errors"

var (
	// ErrBackend wraps any failure of the generative backend. It is always
	// recovered by the fallback path and only surfaces in logs.
	ErrBackend = errors.New("suggestion backend failed")
	// ErrMalformedReply means the backend reply did not match the schema.
	ErrMalformedReply = errors.New("malformed suggestion reply")
)
