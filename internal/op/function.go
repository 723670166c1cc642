package op

import (
	"fmt"
	"strings"

	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Function wraps an arbitrary host computation. Fn receives the raw inputs
// with their views and returns NumOutputs tensors, each read downstream
// through a contiguous view of Dims. A panic inside Fn is reported as
// ErrFunctionPanicked.
type Function struct {
	Name       string
	NumInputs  int
	NumOutputs int
	Dims       []shape.Dim
	Fn         func(in []Input, env Env) ([]*tensor.Tensor, error)
}

func (f *Function) Kind() Kind     { return KindFunction }
func (f *Function) Arity() int     { return f.NumInputs }
func (f *Function) String() string { return fmt.Sprintf("Function(%s)", f.Name) }

func (f *Function) Outputs() int {
	if f.NumOutputs == 0 {
		return 1
	}
	return f.NumOutputs
}

func (f *Function) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(f, in); err != nil {
		return shape.Tracker{}, err
	}
	return shape.New(f.Dims...), nil
}

func (f *Function) Process(in []Input, env Env) (out []*tensor.Tensor, err error) {
	if err = checkInputs(f, in); err != nil {
		return nil, err
	}
	recovered := exceptions.TryCatch[any](func() {
		out, err = f.Fn(in, env)
	})
	if recovered != nil {
		return nil, errors.Wrapf(ErrFunctionPanicked, "%s: %v", f, recovered)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", f)
	}
	if len(out) != f.Outputs() {
		return nil, errors.Errorf("%s returned %d tensors, want %d", f, len(out), f.Outputs())
	}
	return out, nil
}

// Print logs the logical contents of its input. It has no outputs.
type Print struct {
	Message string
}

func (p *Print) Kind() Kind     { return KindPrint }
func (p *Print) Arity() int     { return 1 }
func (p *Print) Outputs() int   { return 0 }
func (p *Print) String() string { return fmt.Sprintf("Print(%q)", p.Message) }

func (p *Print) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(p, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0], nil
}

func (p *Print) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(p, in); err != nil {
		return nil, err
	}
	values, err := Values(in[0], env.Dims)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	klog.Infof("%s %s: [%s]", p.Message, shape.FormatDims(in[0].Shape.Shape()), sb.String())
	return nil, nil
}

// Values reads every logical element of x as float64, with 0 for positions
// the view cannot read.
func Values(x Input, dims shape.Bindings) ([]float64, error) {
	ix, err := x.Shape.Indexer(dims)
	if err != nil {
		return nil, err
	}
	src := x.Tensor.Float64s()
	out := make([]float64, ix.Len())
	for i := range out {
		if p, ok := ix.Index(i); ok {
			out[i] = src[p]
		}
	}
	return out, nil
}
