package scoring

import "errors"

// ErrDimensionMismatch means the role and resume vectors were produced with different dimensions.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")
