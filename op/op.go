// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package op exposes the operator contract. Backends implement Custom to
// install their own operators through a compiler pass.
package op

import (
	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
)

type (
	// Operator is implemented by every node of a graph.
	Operator = op.Operator
	// Custom is an Operator installed by a backend, tagged with its capability.
	Custom = op.Custom
	// Input is one operand: a buffer and the view to read it through.
	Input = op.Input
	// Env carries the dimension bindings and parallelism of a run.
	Env = op.Env
	// Kind tags the primitive operator kinds.
	Kind = op.Kind
	// Function wraps an opaque Go function as a node.
	Function = op.Function
	// Load is a leaf fed by the caller.
	Load = op.Load
)

// Primitive kinds.
const (
	KindLoad       = op.KindLoad
	KindConstant   = op.KindConstant
	KindLog2       = op.KindLog2
	KindExp2       = op.KindExp2
	KindSin        = op.KindSin
	KindSqrt       = op.KindSqrt
	KindRecip      = op.KindRecip
	KindAdd        = op.KindAdd
	KindMul        = op.KindMul
	KindMod        = op.KindMod
	KindLessThan   = op.KindLessThan
	KindMax        = op.KindMax
	KindSumReduce  = op.KindSumReduce
	KindMaxReduce  = op.KindMaxReduce
	KindPermute    = op.KindPermute
	KindReshape    = op.KindReshape
	KindExpand     = op.KindExpand
	KindSlice      = op.KindSlice
	KindPad        = op.KindPad
	KindContiguous = op.KindContiguous
	KindFunction   = op.KindFunction
	KindPrint      = op.KindPrint
	KindFused      = op.KindFused
	KindCustom     = op.KindCustom
)

// Variadic is the Arity of operators accepting any number of inputs.
const Variadic = op.Variadic

// Errors reported by operators.
var (
	ErrArity            = op.ErrArity
	ErrUnsupportedDType = op.ErrUnsupportedDType
	ErrMissingInput     = op.ErrMissingInput
	ErrFunctionPanicked = op.ErrFunctionPanicked
)

// CheckArity validates the number of inputs given to o.
func CheckArity(o Operator, n int) error { return op.CheckArity(o, n) }

// HasCapability reports whether o is a Custom operator tagged capability.
func HasCapability(o Operator, capability string) bool { return op.HasCapability(o, capability) }

// Broadcast compiles the views of two operands against their common shape.
func Broadcast(a, b shape.Tracker, dims shape.Bindings) (*shape.Indexer, *shape.Indexer, error) {
	return op.Broadcast(a, b, dims)
}
