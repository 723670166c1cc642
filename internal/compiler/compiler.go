// Package compiler runs graph-rewriting passes over a lumen graph.
package compiler

import (
	"time"

	"github.com/born-ml/lumen/internal/graph"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Pass rewrites a graph. Every replacement must follow the four-step
// protocol of package graph and be recorded in remap.
type Pass interface {
	Name() string
	Run(g *graph.Graph, remap graph.Remap) error
}

// PassFunc adapts a function to the Pass interface.
type PassFunc struct {
	PassName string
	Fn       func(g *graph.Graph, remap graph.Remap) error
}

// Name returns the pass name.
func (p PassFunc) Name() string { return p.PassName }

// Run calls the wrapped function.
func (p PassFunc) Run(g *graph.Graph, remap graph.Remap) error { return p.Fn(g, remap) }

// Default returns the built-in passes in the order Compile should run them.
func Default() []Pass {
	return []Pass{FoldConstants{}, CollapseContiguous{}, FuseElementwise{}}
}

// Compile runs passes in order. They work on a copy of g: only when every
// pass succeeds is the copy committed to g and its remap entries merged into
// remap. On failure g and remap are left as they were.
func Compile(g *graph.Graph, remap graph.Remap, passes ...Pass) error {
	work := g.Clone()
	local := graph.Remap{}
	for _, p := range passes {
		start := time.Now()
		before := work.Len()
		if err := p.Run(work, local); err != nil {
			return errors.WithMessagef(err, "pass %s", p.Name())
		}
		if err := work.Validate(); err != nil {
			return errors.WithMessagef(err, "pass %s left the graph inconsistent", p.Name())
		}
		klog.V(1).Infof("compiler: %s: %d -> %d nodes in %s", p.Name(), before, work.Len(), time.Since(start))
	}
	g.Assign(work)
	if remap != nil {
		for old, next := range local {
			remap.Record(old, next)
		}
	}
	return nil
}
