// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fixedpoint lowers arithmetic nodes to an external fixed-point
// runtime.
//
// Example:
//
//	cfg := fixedpoint.DefaultConfig()
//	cfg.FractionBits = 16
//	remap := graph.Remap{}
//	err := compiler.Compile(g, remap, fixedpoint.New(cfg))
package fixedpoint

import "github.com/born-ml/lumen/internal/backend/fixedpoint"

type (
	// Config holds the numeric format and the runtime.
	Config = fixedpoint.Config
	// Format is the fixed-point scale and clamp bounds.
	Format = fixedpoint.Format
	// Runtime executes lowered programs.
	Runtime = fixedpoint.Runtime
	// HostRuntime executes programs in-process.
	HostRuntime = fixedpoint.HostRuntime
	// Program is one lowered node with its index tables.
	Program = fixedpoint.Program
	// Opcode selects the computation of a Program.
	Opcode = fixedpoint.Opcode
	// Operand is one serialized input.
	Operand = fixedpoint.Operand
	// Compiler is the lowering pass.
	Compiler = fixedpoint.Compiler
	// Lowered is the operator installed in place of a lowered node.
	Lowered = fixedpoint.Lowered
	// ExecutionError wraps a runtime failure.
	ExecutionError = fixedpoint.ExecutionError
)

// Opcodes.
const (
	OpAdd       = fixedpoint.OpAdd
	OpMul       = fixedpoint.OpMul
	OpMax       = fixedpoint.OpMax
	OpSumReduce = fixedpoint.OpSumReduce
	OpMaxReduce = fixedpoint.OpMaxReduce
)

// Capability tags the operators this backend installs.
const Capability = fixedpoint.Capability

// ErrBackendExecution is matched by every runtime failure.
var ErrBackendExecution = fixedpoint.ErrBackendExecution

// DefaultConfig returns a 32.32 format executed in-process.
func DefaultConfig() Config { return fixedpoint.DefaultConfig() }

// New returns the lowering pass for cfg.
func New(cfg Config) *Compiler { return fixedpoint.New(cfg) }
