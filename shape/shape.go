// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package shape provides symbolic dimensions and the zero-copy view tracker
// that maps logical tensor indices onto flat buffers.
//
// Example:
//
//	t := shape.New(shape.Sym("batch"), shape.Known(3))
//	t, _ = t.Permute([]int{1, 0})
//	ix, _ := t.Indexer(shape.Bindings{"batch": 2})
//	phys, valid := ix.Index(1)
package shape

import "github.com/born-ml/lumen/internal/shape"

// Type aliases for public API.
type (
	// Dim is one extent: a known size or a named symbol plus an offset.
	Dim = shape.Dim
	// Bindings assigns values to symbolic dimensions.
	Bindings = shape.Bindings
	// Tracker is the ShapeTracker: a stack of views over one buffer.
	Tracker = shape.Tracker
	// View is one layer of a Tracker.
	View = shape.View
	// Indexer resolves logical indices once every dimension is bound.
	Indexer = shape.Indexer
	// Range selects [Start, End) along one axis.
	Range = shape.Range
)

// End marks an open slice end.
const End = shape.End

// Errors reported by Tracker operations.
var (
	ErrInvalidPermutation = shape.ErrInvalidPermutation
	ErrAxisOutOfRange     = shape.ErrAxisOutOfRange
	ErrReshapeMismatch    = shape.ErrReshapeMismatch
	ErrUnboundDim         = shape.ErrUnboundDim
	ErrBroadcast          = shape.ErrBroadcast
	ErrInvalidSlice       = shape.ErrInvalidSlice
)

// New creates a Tracker over a contiguous buffer of the given shape.
func New(dims ...Dim) Tracker { return shape.New(dims...) }

// NewKnown is New for concrete extents.
func NewKnown(ns ...int) Tracker { return shape.NewKnown(ns...) }

// Known returns a concrete dimension.
func Known(n int) Dim { return shape.Known(n) }

// Sym returns a symbolic dimension.
func Sym(name string) Dim { return shape.Sym(name) }

// Dims converts concrete extents to dimensions.
func Dims(ns ...int) []Dim { return shape.Dims(ns...) }

// All selects a whole axis.
func All() Range { return shape.All() }

// BroadcastShapes returns the right-aligned broadcast of a and b.
func BroadcastShapes(a, b []Dim) ([]Dim, error) { return shape.BroadcastShapes(a, b) }
