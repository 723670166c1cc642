package fixedpoint

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// Runtime executes lowered programs. It stands in for an external engine:
// implementations may serialize the program and operands anywhere.
type Runtime interface {
	Execute(p Program, args []Operand) ([]int64, error)
}

// HostRuntime executes programs in-process with saturating integer
// arithmetic.
type HostRuntime struct{}

// Execute runs p over args.
func (HostRuntime) Execute(p Program, args []Operand) ([]int64, error) {
	if len(args) != p.Arity() {
		return nil, errors.Errorf("%s takes %d operands, got %d", p.Op, p.Arity(), len(args))
	}
	switch p.Op {
	case OpAdd, OpMul, OpMax:
		return executeBinary(p, args[0], args[1])
	case OpSumReduce, OpMaxReduce:
		return executeReduce(p, args[0])
	default:
		return nil, errors.Errorf("unknown opcode %s", p.Op)
	}
}

func fetch(buf Operand, idx int) (int64, error) {
	if idx < 0 {
		return 0, nil
	}
	if idx >= len(buf) {
		return 0, errors.Errorf("index %d outside operand of %d values", idx, len(buf))
	}
	return buf[idx], nil
}

func executeBinary(p Program, lhs, rhs Operand) ([]int64, error) {
	if len(p.LHS) != p.OutputSize || len(p.RHS) != p.OutputSize {
		return nil, errors.Errorf("%s: index tables do not cover %d outputs", p.Op, p.OutputSize)
	}
	f := p.Format
	out := make([]int64, p.OutputSize)
	for i := range out {
		a, err := fetch(lhs, p.LHS[i])
		if err != nil {
			return nil, errors.WithMessage(err, "lhs")
		}
		b, err := fetch(rhs, p.RHS[i])
		if err != nil {
			return nil, errors.WithMessage(err, "rhs")
		}
		switch p.Op {
		case OpAdd:
			out[i] = addSat(a, b, f)
		case OpMul:
			out[i] = mulSat(a, b, f)
		case OpMax:
			out[i] = max(a, b)
		}
	}
	return out, nil
}

func executeReduce(p Program, in Operand) ([]int64, error) {
	if len(p.Gather) != len(p.Lanes) {
		return nil, errors.Errorf("%s: gather and lane tables differ in length", p.Op)
	}
	out := make([]int64, p.OutputSize)
	if p.Op == OpMaxReduce {
		for i := range out {
			out[i] = p.Format.Min
		}
	}
	for i, src := range p.Gather {
		if src < 0 {
			continue
		}
		v, err := fetch(in, src)
		if err != nil {
			return nil, err
		}
		lane := p.Lanes[i]
		if lane < 0 || lane >= len(out) {
			return nil, errors.Errorf("lane %d outside %d outputs", lane, len(out))
		}
		if p.Op == OpMaxReduce {
			out[lane] = max(out[lane], v)
		} else {
			out[lane] = addSat(out[lane], v, p.Format)
		}
	}
	return out, nil
}

// addSat adds with saturation at the format bounds.
func addSat(a, b int64, f Format) int64 {
	s, overflow := a+b, false
	if (b > 0 && s < a) || (b < 0 && s > a) {
		overflow = true
	}
	if overflow {
		if b > 0 {
			return f.Max
		}
		return f.Min
	}
	return f.clamp(s)
}

// mulSat multiplies two fixed-point values: (a*b) >> FractionBits computed on
// 128 bits, saturating at the format bounds.
func mulSat(a, b int64, f Format) int64 {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absU(a), absU(b))
	shift := f.FractionBits
	var q uint64
	switch {
	case shift == 0:
		if hi != 0 {
			return saturate(neg, f)
		}
		q = lo
	case shift >= 64:
		q = hi >> (shift - 64)
	default:
		if hi>>shift != 0 {
			return saturate(neg, f)
		}
		q = hi<<(64-shift) | lo>>shift
	}
	if neg {
		if q > 1<<63 {
			return f.Min
		}
		return f.clamp(-int64(q))
	}
	if q > math.MaxInt64 {
		return f.Max
	}
	return f.clamp(int64(q))
}

func saturate(neg bool, f Format) int64 {
	if neg {
		return f.Min
	}
	return f.Max
}

func absU(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
