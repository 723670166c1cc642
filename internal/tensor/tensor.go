package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// buffer is a reference-counted byte slice. Every Tensor aliasing the same
// storage holds one reference; the bytes are dropped when the last one goes.
type buffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

func newBuffer(size int) *buffer {
	buf := &buffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

func (b *buffer) addRef() {
	b.refCount.Add(1)
}

func (b *buffer) release() {
	if b.refCount.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

// Tensor is an opaque flat buffer of numbers. It carries no shape: how the
// elements are interpreted is described by the shape.Tracker on the graph edge
// that delivers it, which is what lets many logical views alias one buffer.
type Tensor struct {
	buf   *buffer
	dtype DataType
	n     int
}

// New allocates a zero-filled tensor holding n elements of dtype.
func New(dtype DataType, n int) (*Tensor, error) {
	if n < 0 {
		return nil, errors.Errorf("invalid element count %d (must be >= 0)", n)
	}
	return &Tensor{
		buf:   newBuffer(n * dtype.Size()),
		dtype: dtype,
		n:     n,
	}, nil
}

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	t := tensor.FromSlice([]float32{1, 2, 3})
func FromSlice[T constraints.Float](data []T) *Tensor {
	t := Zeros[T](len(data))
	copy(Data[T](t), data)
	return t
}

// Zeros creates a tensor of n zero elements of type T.
func Zeros[T constraints.Float](n int) *Tensor {
	t, err := New(DataTypeOf[T](), n)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a single-element tensor.
func Scalar[T constraints.Float](v T) *Tensor {
	return FromSlice([]T{v})
}

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// Len returns the number of elements in the buffer.
func (t *Tensor) Len() int {
	return t.n
}

// ByteSize returns the total memory size in bytes.
func (t *Tensor) ByteSize() int {
	return t.n * t.dtype.Size()
}

// Bytes returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (t *Tensor) Bytes() []byte {
	return t.buf.data
}

// Data interprets the buffer as []T without copying.
// Panics if T does not match the tensor's dtype or the buffer was released.
func Data[T constraints.Float](t *Tensor) []T {
	if want := DataTypeOf[T](); want != t.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", t.dtype, want))
	}
	if t.n == 0 {
		return []T{}
	}
	if t.buf.data == nil {
		panic("tensor buffer was released")
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by n
	return unsafe.Slice((*T)(unsafe.Pointer(&t.buf.data[0])), t.n)
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	return Data[float32](t)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (t *Tensor) AsFloat64() []float64 {
	return Data[float64](t)
}

// Float64s returns a float64 copy of the elements, whatever the dtype.
func (t *Tensor) Float64s() []float64 {
	out := make([]float64, t.n)
	switch t.dtype {
	case Float32:
		for i, v := range t.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, t.AsFloat64())
	}
	return out
}

// Share returns a new handle aliasing the same buffer (zero-copy). The buffer
// lives until every handle has been released.
func (t *Tensor) Share() *Tensor {
	t.buf.addRef()
	return &Tensor{buf: t.buf, dtype: t.dtype, n: t.n}
}

// Clone returns a deep copy with its own buffer.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{buf: newBuffer(t.ByteSize()), dtype: t.dtype, n: t.n}
	copy(out.buf.data, t.buf.data)
	return out
}

// Release drops this handle's reference to the buffer.
func (t *Tensor) Release() {
	t.buf.release()
}

// Released reports whether the underlying storage has been freed.
func (t *Tensor) Released() bool {
	return t.buf.refCount.Load() <= 0
}

// IsUnique returns true if this handle is the only reference to the buffer.
func (t *Tensor) IsUnique() bool {
	return t.buf.refCount.Load() == 1
}

// SameBuffer reports whether t and other alias the same storage.
func (t *Tensor) SameBuffer(other *Tensor) bool {
	return t.buf == other.buf
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if t.Released() {
		return fmt.Sprintf("Tensor[%s](released)", t.dtype)
	}
	return fmt.Sprintf("Tensor[%s]%v", t.dtype, t.Float64s())
}
