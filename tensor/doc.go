// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the flat, reference-counted buffers that flow
// through a lumen graph.
//
// # Overview
//
// A Tensor carries no shape. How its elements are read is decided by the
// shape.Tracker on the graph edge that delivers it, so movement operations
// (permute, reshape, expand, slice, pad) never copy. Buffers are shared with
// Share and dropped with Release; the engine frees intermediates as soon as
// their last consumer has run.
//
// # Basic Usage
//
//	x := tensor.FromSlice([]float32{1, 2, 3, 4})
//	y := x.Share()              // same buffer, one more reference
//	data := tensor.Data[float32](y)
//	y.Release()
//
// # Supported Data Types
//
//   - Float32
//   - Float64
package tensor
