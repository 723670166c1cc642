package fixedpoint

import (
	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Compiler lowers the nodes this backend supports into Lowered operators.
// Load nodes stay in place; scalar Constants become materialized Loads; Add,
// Mul, Max, SumReduce and MaxReduce whose input views are fully static are
// lowered, with their index tables computed here. Anything else is left for
// the primitive kernels.
type Compiler struct {
	cfg Config
}

// New returns the pass for cfg.
func New(cfg Config) *Compiler {
	return &Compiler{cfg: cfg}
}

// Name returns the pass name.
func (c *Compiler) Name() string { return "fixedpoint" }

// Run lowers g in place, recording every replacement in remap.
func (c *Compiler) Run(g *graph.Graph, remap graph.Remap) error {
	order, err := g.TopoSort()
	if err != nil {
		return err
	}
	lowered, folded := 0, 0
	for _, id := range order {
		if !g.Has(id) {
			continue
		}
		o := g.Op(id)
		switch k := o.Kind(); {
		case k == op.KindLoad:
			continue
		case k == op.KindConstant:
			ok, err := c.foldConstant(g, id, o.(*op.Constant), remap)
			if err != nil {
				return errors.WithMessagef(err, "fixedpoint: constant %d", id)
			}
			if ok {
				folded++
			}
		case k == op.KindAdd, k == op.KindMul, k == op.KindMax,
			k == op.KindSumReduce, k == op.KindMaxReduce:
			ok, err := c.lower(g, id, o, remap)
			if err != nil {
				return errors.WithMessagef(err, "fixedpoint: lowering node %d (%s)", id, o)
			}
			if ok {
				lowered++
			}
		}
	}
	klog.V(1).Infof("fixedpoint: lowered %d nodes, folded %d constants", lowered, folded)
	return nil
}

// foldConstant replaces a scalar Constant with a Load holding its value.
// Dimension-valued constants depend on bindings and stay.
func (c *Compiler) foldConstant(g *graph.Graph, id graph.NodeID, k *op.Constant, remap graph.Remap) (bool, error) {
	if k.Dim != nil {
		return false, nil
	}
	outs, err := k.Process(nil, op.Env{Dims: g.Dims()})
	if err != nil {
		return false, err
	}
	load := &op.Load{Name: k.String(), DType: k.DType}
	next, err := g.AddOp(load).Finish()
	if err != nil {
		return false, err
	}
	if err := g.SetTensor(next, outs[0]); err != nil {
		return false, err
	}
	return true, g.Replace(id, next, remap)
}

func (c *Compiler) lower(g *graph.Graph, id graph.NodeID, o op.Operator, remap graph.Remap) (bool, error) {
	srcs := g.Sources(id)
	for _, s := range srcs {
		if !s.Shape.IsStatic() {
			return false, nil
		}
	}
	code, _ := opcodeFor(o.Kind())
	var (
		p   Program
		err error
	)
	switch r := o.(type) {
	case *op.Reduce:
		p, err = reduceProgram(code, srcs[0].Shape, r.Axis, c.cfg.format())
	default:
		if len(srcs) != 2 {
			return false, errors.Wrapf(op.ErrArity, "%s has %d inputs", o, len(srcs))
		}
		p, err = binaryProgram(code, srcs[0].Shape, srcs[1].Shape, c.cfg.format())
	}
	if err != nil {
		return false, err
	}
	l := &Lowered{
		Program: p,
		Source:  o.Kind(),
		output:  g.Shape(id),
		runtime: c.cfg.runtime(),
	}
	next, err := g.CopyInputs(id, g.AddOp(l)).Finish()
	if err != nil {
		return false, err
	}
	return true, g.Replace(id, next, remap)
}
