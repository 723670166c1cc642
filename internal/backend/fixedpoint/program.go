package fixedpoint

import (
	"fmt"

	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/pkg/errors"
)

// Opcode selects the computation of a Program.
type Opcode int

const (
	OpAdd Opcode = iota
	OpMul
	OpMax
	OpSumReduce
	OpMaxReduce
)

func (o Opcode) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpMul:
		return "mul"
	case OpMax:
		return "max"
	case OpSumReduce:
		return "sum_reduce"
	case OpMaxReduce:
		return "max_reduce"
	default:
		return fmt.Sprintf("opcode(%d)", int(o))
	}
}

// Operand is one serialized input buffer.
type Operand []int64

// Program is everything a Runtime needs to run one lowered node. Index
// tables are computed once when the pass runs; -1 marks a position that
// reads nothing.
//
// Binary programs produce out[i] = op(lhs[LHS[i]], rhs[RHS[i]]) with unread
// operands taken as 0. Reduce programs fold in[Gather[i]] into
// out[Lanes[i]], skipping unread positions.
type Program struct {
	Op         Opcode
	Format     Format
	OutputSize int

	LHS, RHS []int

	Gather []int
	Lanes  []int
}

// Arity returns the number of operands the program reads.
func (p Program) Arity() int {
	if p.Op == OpSumReduce || p.Op == OpMaxReduce {
		return 1
	}
	return 2
}

func opcodeFor(k op.Kind) (Opcode, bool) {
	switch k {
	case op.KindAdd:
		return OpAdd, true
	case op.KindMul:
		return OpMul, true
	case op.KindMax:
		return OpMax, true
	case op.KindSumReduce:
		return OpSumReduce, true
	case op.KindMaxReduce:
		return OpMaxReduce, true
	}
	return 0, false
}

// binaryProgram precomputes the broadcast index tables of a binary node.
func binaryProgram(code Opcode, lhs, rhs shape.Tracker, f Format) (Program, error) {
	ia, ib, err := op.Broadcast(lhs, rhs, nil)
	if err != nil {
		return Program{}, err
	}
	return Program{
		Op:         code,
		Format:     f,
		OutputSize: ia.Len(),
		LHS:        ia.Table(),
		RHS:        ib.Table(),
	}, nil
}

// reduceProgram precomputes the gather and lane tables of a reduction.
func reduceProgram(code Opcode, in shape.Tracker, axis int, f Format) (Program, error) {
	ix, err := in.Indexer(nil)
	if err != nil {
		return Program{}, err
	}
	dims := ix.Shape()
	if axis < 0 || axis >= len(dims) {
		return Program{}, errors.Wrapf(shape.ErrAxisOutOfRange, "reduce axis %d for rank %d", axis, len(dims))
	}
	lanes := op.Lanes{
		Outer: shape.NumElements(dims[:axis]),
		Size:  dims[axis],
		Inner: shape.NumElements(dims[axis+1:]),
	}
	laneOf := make([]int, ix.Len())
	for o := range lanes.Len() {
		for k := range lanes.Size {
			laneOf[lanes.Logical(o, k)] = o
		}
	}
	return Program{
		Op:         code,
		Format:     f,
		OutputSize: lanes.Len(),
		Gather:     ix.Table(),
		Lanes:      laneOf,
	}, nil
}
