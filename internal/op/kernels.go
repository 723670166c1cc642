package op

import (
	"math"

	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// read returns the logical element i of src, or 0 when it lies outside the buffer.
func read[T constraints.Float](src []T, ix *shape.Indexer, i int) (T, bool) {
	p, ok := ix.Index(i)
	if !ok {
		return 0, false
	}
	return src[p], true
}

// mapKernel writes f(x[i]) for every logical element of the input view into a
// dense output. Invalid positions produce fill.
func mapKernel[T constraints.Float](x *tensor.Tensor, ix *shape.Indexer, f func(T) T, fill T, cfg parallel.Config) *tensor.Tensor {
	src := tensor.Data[T](x)
	out := tensor.Zeros[T](ix.Len())
	dst := tensor.Data[T](out)
	parallel.For(len(dst), func(i int) {
		if v, ok := read(src, ix, i); ok {
			dst[i] = f(v)
		} else {
			dst[i] = fill
		}
	}, cfg)
	return out
}

// zipKernel combines two views of the same logical shape elementwise.
func zipKernel[T constraints.Float](a, b *tensor.Tensor, ia, ib *shape.Indexer, f func(T, T) T, cfg parallel.Config) *tensor.Tensor {
	sa, sb := tensor.Data[T](a), tensor.Data[T](b)
	out := tensor.Zeros[T](ia.Len())
	dst := tensor.Data[T](out)
	parallel.For(len(dst), func(i int) {
		va, _ := read(sa, ia, i)
		vb, _ := read(sb, ib, i)
		dst[i] = f(va, vb)
	}, cfg)
	return out
}

func unaryFunc32(k Kind) func(float32) float32 {
	switch k {
	case KindLog2:
		return math32.Log2
	case KindExp2:
		return math32.Exp2
	case KindSin:
		return math32.Sin
	case KindSqrt:
		return math32.Sqrt
	case KindRecip:
		return func(x float32) float32 { return 1 / x }
	}
	exceptions.Panicf("op: %s is not a unary kind", k)
	return nil
}

func unaryFunc64(k Kind) func(float64) float64 {
	switch k {
	case KindLog2:
		return math.Log2
	case KindExp2:
		return math.Exp2
	case KindSin:
		return math.Sin
	case KindSqrt:
		return math.Sqrt
	case KindRecip:
		return func(x float64) float64 { return 1 / x }
	}
	exceptions.Panicf("op: %s is not a unary kind", k)
	return nil
}

// unaryFunc returns the scalar function of a unary kind for element type T.
func unaryFunc[T constraints.Float](k Kind) func(T) T {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return any(unaryFunc32(k)).(func(T) T)
	}
	return any(unaryFunc64(k)).(func(T) T)
}

// binaryFunc returns the scalar function of a binary kind for element type T.
func binaryFunc[T constraints.Float](k Kind) func(T, T) T {
	switch k {
	case KindAdd:
		return func(a, b T) T { return a + b }
	case KindMul:
		return func(a, b T) T { return a * b }
	case KindMax:
		return func(a, b T) T { return max(a, b) }
	case KindLessThan:
		return func(a, b T) T {
			if a < b {
				return 1
			}
			return 0
		}
	case KindMod:
		var zero T
		if _, ok := any(zero).(float32); ok {
			return any(math32.Mod).(func(T, T) T)
		}
		return any(math.Mod).(func(T, T) T)
	}
	exceptions.Panicf("op: %s is not a binary kind", k)
	return nil
}

func negInf[T constraints.Float]() T {
	return T(math.Inf(-1))
}
