package op

import (
	"fmt"

	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
)

// Movement operators only rewrite the view: Process hands back a new handle
// to the input buffer and OutputShape carries the transformed Tracker.

// Permute reorders axes: output axis i is input axis Perm[i].
type Permute struct {
	Perm []int
}

func (p *Permute) Kind() Kind     { return KindPermute }
func (p *Permute) Arity() int     { return 1 }
func (p *Permute) Outputs() int   { return 1 }
func (p *Permute) String() string { return fmt.Sprintf("Permute%v", p.Perm) }

func (p *Permute) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(p, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Permute(p.Perm)
}

func (p *Permute) Process(in []Input, _ Env) ([]*tensor.Tensor, error) {
	return share(p, in)
}

// Reshape reinterprets the logical elements with a new shape.
type Reshape struct {
	Dims []shape.Dim
}

func (r *Reshape) Kind() Kind     { return KindReshape }
func (r *Reshape) Arity() int     { return 1 }
func (r *Reshape) Outputs() int   { return 1 }
func (r *Reshape) String() string { return "Reshape" + shape.FormatDims(r.Dims) }

func (r *Reshape) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(r, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Reshape(r.Dims)
}

func (r *Reshape) Process(in []Input, _ Env) ([]*tensor.Tensor, error) {
	return share(r, in)
}

// Expand inserts a broadcast axis of extent Size at position Axis.
type Expand struct {
	Axis int
	Size shape.Dim
}

func (e *Expand) Kind() Kind     { return KindExpand }
func (e *Expand) Arity() int     { return 1 }
func (e *Expand) Outputs() int   { return 1 }
func (e *Expand) String() string { return fmt.Sprintf("Expand(%d, %s)", e.Axis, e.Size) }

func (e *Expand) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(e, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Expand(e.Axis, e.Size)
}

func (e *Expand) Process(in []Input, _ Env) ([]*tensor.Tensor, error) {
	return share(e, in)
}

// Slice restricts each axis to a range.
type Slice struct {
	Ranges []shape.Range
}

func (s *Slice) Kind() Kind     { return KindSlice }
func (s *Slice) Arity() int     { return 1 }
func (s *Slice) Outputs() int   { return 1 }
func (s *Slice) String() string { return fmt.Sprintf("Slice%v", s.Ranges) }

func (s *Slice) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(s, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Slice(s.Ranges)
}

func (s *Slice) Process(in []Input, _ Env) ([]*tensor.Tensor, error) {
	return share(s, in)
}

// Pad extends each axis with invalid positions before and after.
type Pad struct {
	Padding [][2]int
}

func (p *Pad) Kind() Kind     { return KindPad }
func (p *Pad) Arity() int     { return 1 }
func (p *Pad) Outputs() int   { return 1 }
func (p *Pad) String() string { return fmt.Sprintf("Pad%v", p.Padding) }

func (p *Pad) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(p, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Pad(p.Padding)
}

func (p *Pad) Process(in []Input, _ Env) ([]*tensor.Tensor, error) {
	return share(p, in)
}

func share(o Operator, in []Input) ([]*tensor.Tensor, error) {
	if err := checkInputs(o, in); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{in[0].Tensor.Share()}, nil
}
