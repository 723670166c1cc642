package op

import (
	"fmt"

	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// Variadic is returned by Arity for operators accepting any number of inputs.
const Variadic = -1

// Input is one operand: a flat buffer and the view through which to read it.
type Input struct {
	Tensor *tensor.Tensor
	Shape  shape.Tracker
}

// Env is what an operator sees of the running graph.
type Env struct {
	// Dims binds the symbolic dimensions of every Tracker.
	Dims shape.Bindings
	// Parallel controls how kernels split their element loops.
	Parallel parallel.Config
}

// Operator is the contract shared by every primitive kind and every operator
// a backend pass installs.
type Operator interface {
	fmt.Stringer

	// Kind returns the primitive kind tag.
	Kind() Kind

	// Arity returns the number of inputs, or Variadic.
	Arity() int

	// Outputs returns the number of output slots.
	Outputs() int

	// OutputShape derives the view consumers read the outputs through,
	// given the views of the inputs. Movement operators compose onto the
	// input view; compute operators return a fresh contiguous view.
	OutputShape(in []shape.Tracker) (shape.Tracker, error)

	// Process computes the outputs. It must read every input through its
	// Tracker and never mutate an input buffer.
	Process(in []Input, env Env) ([]*tensor.Tensor, error)
}

// CheckArity validates the number of inputs given to o.
func CheckArity(o Operator, n int) error {
	if want := o.Arity(); want != Variadic && want != n {
		return errors.Wrapf(ErrArity, "%s takes %d inputs, got %d", o, want, n)
	}
	return nil
}

func checkInputs(o Operator, in []Input) error {
	if err := CheckArity(o, len(in)); err != nil {
		return err
	}
	for i, x := range in {
		if x.Tensor == nil {
			return errors.Wrapf(ErrMissingInput, "%s input %d", o, i)
		}
	}
	return nil
}

func checkShapes(o Operator, in []shape.Tracker) error {
	if want := o.Arity(); want != Variadic && want != len(in) {
		return errors.Wrapf(ErrArity, "%s takes %d inputs, got %d", o, want, len(in))
	}
	return nil
}

func unsupported(o Operator, dt tensor.DataType) error {
	return errors.Wrapf(ErrUnsupportedDType, "%s on %s", o, dt)
}
