package fixedpoint

import (
	"fmt"

	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// ErrBackendExecution is matched by every failure reported by a Runtime.
var ErrBackendExecution = errors.New("fixedpoint: backend execution failed")

// ExecutionError wraps a Runtime failure with the lowered operator that
// caused it. errors.Is matches both ErrBackendExecution and the cause.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackendExecution, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBackendExecution.
func (e *ExecutionError) Is(target error) bool { return target == ErrBackendExecution }

// Lowered is the operator the pass installs in place of a primitive node. It
// serializes its operands, runs the precomputed Program on the Runtime and
// deserializes the result into the operands' data type.
type Lowered struct {
	Program Program
	// Source is the primitive kind that was lowered.
	Source op.Kind

	output  shape.Tracker
	runtime Runtime
}

var _ op.Custom = (*Lowered)(nil)

func (l *Lowered) Kind() op.Kind      { return op.KindCustom }
func (l *Lowered) Capability() string { return Capability }
func (l *Lowered) Arity() int         { return l.Program.Arity() }
func (l *Lowered) Outputs() int       { return 1 }
func (l *Lowered) String() string     { return fmt.Sprintf("FixedPoint(%s)", l.Source) }

func (l *Lowered) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := op.CheckArity(l, len(in)); err != nil {
		return shape.Tracker{}, err
	}
	return l.output, nil
}

func (l *Lowered) Process(in []op.Input, _ op.Env) ([]*tensor.Tensor, error) {
	if err := op.CheckArity(l, len(in)); err != nil {
		return nil, err
	}
	dt := in[0].Tensor.DType()
	args := make([]Operand, len(in))
	for i, x := range in {
		if x.Tensor.DType() != dt {
			return nil, errors.Wrapf(op.ErrUnsupportedDType, "%s on %s and %s", l, dt, x.Tensor.DType())
		}
		enc, err := EncodeTensor(x.Tensor, l.Program.Format)
		if err != nil {
			return nil, err
		}
		args[i] = enc
	}
	values, err := l.runtime.Execute(l.Program, args)
	if err != nil {
		return nil, &ExecutionError{Op: l.String(), Err: err}
	}
	if len(values) != l.Program.OutputSize {
		return nil, &ExecutionError{
			Op:  l.String(),
			Err: errors.Errorf("runtime returned %d values, want %d", len(values), l.Program.OutputSize),
		}
	}
	out, err := DecodeTensor(values, dt, l.Program.Format)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{out}, nil
}
