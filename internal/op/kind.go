package op

// Kind tags every operator with its primitive kind. Passes dispatch on it with
// an exhaustive switch; Custom is the only kind whose behavior is not defined
// in this package.
type Kind int

const (
	KindLoad Kind = iota
	KindConstant

	KindLog2
	KindExp2
	KindSin
	KindSqrt
	KindRecip

	KindAdd
	KindMul
	KindMod
	KindLessThan
	KindMax

	KindSumReduce
	KindMaxReduce

	KindPermute
	KindReshape
	KindExpand
	KindSlice
	KindPad

	KindContiguous
	KindFunction
	KindPrint
	KindFused
	KindCustom
)

var kindNames = [...]string{
	KindLoad:       "Load",
	KindConstant:   "Constant",
	KindLog2:       "Log2",
	KindExp2:       "Exp2",
	KindSin:        "Sin",
	KindSqrt:       "Sqrt",
	KindRecip:      "Recip",
	KindAdd:        "Add",
	KindMul:        "Mul",
	KindMod:        "Mod",
	KindLessThan:   "LessThan",
	KindMax:        "Max",
	KindSumReduce:  "SumReduce",
	KindMaxReduce:  "MaxReduce",
	KindPermute:    "Permute",
	KindReshape:    "Reshape",
	KindExpand:     "Expand",
	KindSlice:      "Slice",
	KindPad:        "Pad",
	KindContiguous: "Contiguous",
	KindFunction:   "Function",
	KindPrint:      "Print",
	KindFused:      "Fused",
	KindCustom:     "Custom",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// IsUnary reports whether k is an elementwise function of one input.
func (k Kind) IsUnary() bool {
	return k >= KindLog2 && k <= KindRecip
}

// IsBinary reports whether k is a broadcasting elementwise function of two inputs.
func (k Kind) IsBinary() bool {
	return k >= KindAdd && k <= KindMax
}

// IsReduce reports whether k folds one axis.
func (k Kind) IsReduce() bool {
	return k == KindSumReduce || k == KindMaxReduce
}

// IsMovement reports whether k only rewrites the shape view.
func (k Kind) IsMovement() bool {
	return k >= KindPermute && k <= KindPad
}
