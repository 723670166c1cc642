// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/lumen/internal/tensor"
	"golang.org/x/exp/constraints"
)

// Tensor is a type-erased flat buffer plus its DataType.
type Tensor = tensor.Tensor

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// New allocates a zeroed tensor of n elements.
func New(dtype DataType, n int) (*Tensor, error) {
	return tensor.New(dtype, n)
}

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	x := tensor.FromSlice([]float64{1, 2, 3})
func FromSlice[T constraints.Float](data []T) *Tensor {
	return tensor.FromSlice(data)
}

// Zeros creates a tensor of n zeros.
func Zeros[T constraints.Float](n int) *Tensor {
	return tensor.Zeros[T](n)
}

// Scalar creates a one-element tensor.
func Scalar[T constraints.Float](v T) *Tensor {
	return tensor.Scalar(v)
}

// Data returns the elements of t as a typed slice aliasing its buffer.
func Data[T constraints.Float](t *Tensor) []T {
	return tensor.Data[T](t)
}

// DataTypeOf returns the DataType for T.
func DataTypeOf[T constraints.Float]() DataType {
	return tensor.DataTypeOf[T]()
}
