package shape

import "github.com/pkg/errors"

// BroadcastShapes implements NumPy-style broadcasting over Dims.
//
// Rules:
//  1. Compare shapes element-wise from right to left
//  2. Dimensions are compatible if they are equal or one of them is 1
//  3. Missing dimensions are treated as 1
//  4. A symbolic extent against a known extent > 1 takes the known extent;
//     two different symbolic extents are incompatible
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5)
//	(n, 4) + (4)    → (n, 4)
//	(3, 4) + (3, 5) → error
func BroadcastShapes(a, b []Dim) ([]Dim, error) {
	maxLen := max(len(a), len(b))
	result := make([]Dim, maxLen)

	for i := 0; i < maxLen; i++ {
		aDim, bDim := Known(1), Known(1)
		if aIdx := len(a) - 1 - i; aIdx >= 0 {
			aDim = a[aIdx]
		}
		if bIdx := len(b) - 1 - i; bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == Known(1):
			result[maxLen-1-i] = bDim
		case bDim == Known(1):
			result[maxLen-1-i] = aDim
		case aDim.IsKnown() && !bDim.IsKnown():
			result[maxLen-1-i] = aDim
		case !aDim.IsKnown() && bDim.IsKnown():
			result[maxLen-1-i] = bDim
		default:
			return nil, errors.Wrapf(ErrBroadcast, "%s vs %s (dimension %d: %s vs %s)",
				FormatDims(a), FormatDims(b), maxLen-1-i, aDim, bDim)
		}
	}
	return result, nil
}
