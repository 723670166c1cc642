package op

import "github.com/pkg/errors"

// Errors returned by operators. Callers match them with errors.Is.
var (
	ErrArity            = errors.New("wrong number of inputs")
	ErrUnsupportedDType = errors.New("unsupported data type")
	ErrMissingInput     = errors.New("missing input tensor")
	ErrFunctionPanicked = errors.New("function operator panicked")
)
