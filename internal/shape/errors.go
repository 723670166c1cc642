package shape

import "github.com/pkg/errors"

// Errors returned by Tracker operations and index resolution. Callers match
// them with errors.Is; the returned values carry extra context.
var (
	ErrInvalidPermutation = errors.New("permutation is not a bijection on the axes")
	ErrAxisOutOfRange     = errors.New("axis out of range")
	ErrReshapeMismatch    = errors.New("reshape changes the number of elements")
	ErrUnboundDim         = errors.New("symbolic dimension has no binding")
	ErrBroadcast          = errors.New("shapes are not broadcast-compatible")
	ErrInvalidSlice       = errors.New("invalid slice or padding")
)
