package loadgen

import "errors"

// Run failures.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrRoleCreate   = errors.New("role creation failed")
	ErrNotSettled   = errors.New("analyses did not settle")
	ErrRankingOrder = errors.New("ranking out of order")
)
