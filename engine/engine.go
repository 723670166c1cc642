// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package engine executes graphs on the host.
//
// Example:
//
//	if err := engine.Run(g, engine.DefaultOptions()); err != nil {
//	    return err
//	}
//	values, err := y.Data()
package engine

import (
	"github.com/born-ml/lumen/internal/engine"
	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/parallel"
)

// Options configures a run.
type Options = engine.Options

// ParallelConfig controls fork-join execution and kernel loop splitting.
type ParallelConfig = parallel.Config

// ErrMissingTensor is returned when an input was never produced.
var ErrMissingTensor = engine.ErrMissingTensor

// DefaultOptions runs sequentially.
func DefaultOptions() Options { return engine.DefaultOptions() }

// DefaultParallelConfig enables parallelism with one worker per CPU.
func DefaultParallelConfig() ParallelConfig { return parallel.DefaultConfig() }

// Run executes every node of g exactly once and stores the outputs of
// retained nodes.
func Run(g *graph.Graph, opts Options) error { return engine.Run(g, opts) }
