// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compiler runs rewrite passes over a graph before execution.
//
// Example:
//
//	remap := graph.Remap{}
//	if err := compiler.Compile(g, remap, compiler.Default()...); err != nil {
//	    return err
//	}
//	y = y.Remap(remap)
package compiler

import (
	"github.com/born-ml/lumen/internal/compiler"
	"github.com/born-ml/lumen/internal/graph"
)

type (
	// Pass rewrites a graph in place.
	Pass = compiler.Pass
	// PassFunc adapts a function to Pass.
	PassFunc = compiler.PassFunc
	// FoldConstants evaluates constant subgraphs ahead of time.
	FoldConstants = compiler.FoldConstants
	// FuseElementwise merges chains of unary operators.
	FuseElementwise = compiler.FuseElementwise
	// CollapseContiguous drops redundant Contiguous nodes.
	CollapseContiguous = compiler.CollapseContiguous
)

// Default returns the built-in pipeline.
func Default() []Pass { return compiler.Default() }

// Compile runs passes in order. Either every pass succeeds and g holds the
// result, or g is left untouched.
func Compile(g *graph.Graph, remap graph.Remap, passes ...Pass) error {
	return compiler.Compile(g, remap, passes...)
}
