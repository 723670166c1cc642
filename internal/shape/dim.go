package shape

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Dim is one axis extent. A known Dim has an empty Name and its extent is
// Value. A symbolic Dim is resolved at solve time as Bindings[Name] + Value,
// so slicing or padding a symbolic axis only shifts the offset.
type Dim struct {
	Name  string
	Value int
}

// Bindings maps symbolic dimension names to their runtime values.
type Bindings map[string]int

// Known returns a Dim with a fixed extent.
func Known(n int) Dim {
	return Dim{Value: n}
}

// Sym returns a symbolic Dim named name.
func Sym(name string) Dim {
	return Dim{Name: name}
}

// Dims converts concrete extents into known Dims.
func Dims(ns ...int) []Dim {
	out := make([]Dim, len(ns))
	for i, n := range ns {
		out[i] = Known(n)
	}
	return out
}

// IsKnown reports whether the extent is fixed at construction time.
func (d Dim) IsKnown() bool {
	return d.Name == ""
}

// Add returns d shifted by n.
func (d Dim) Add(n int) Dim {
	return Dim{Name: d.Name, Value: d.Value + n}
}

// Resolve returns the concrete extent of d. Extents that resolve below zero
// are clamped to zero.
func (d Dim) Resolve(b Bindings) (int, error) {
	if d.IsKnown() {
		return d.Value, nil
	}
	v, ok := b[d.Name]
	if !ok {
		return 0, errors.Wrapf(ErrUnboundDim, "dimension %q", d.Name)
	}
	return max(v+d.Value, 0), nil
}

// String implements fmt.Stringer.
func (d Dim) String() string {
	switch {
	case d.IsKnown():
		return fmt.Sprint(d.Value)
	case d.Value == 0:
		return d.Name
	case d.Value > 0:
		return fmt.Sprintf("%s+%d", d.Name, d.Value)
	default:
		return fmt.Sprintf("%s%d", d.Name, d.Value)
	}
}

// ResolveAll resolves every Dim in dims.
func ResolveAll(dims []Dim, b Bindings) ([]int, error) {
	out := make([]int, len(dims))
	for i, d := range dims {
		v, err := d.Resolve(b)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FormatDims renders a shape like "[batch 3 4]".
func FormatDims(dims []Dim) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// EqualDims reports whether two shapes are structurally identical.
func EqualDims(a, b []Dim) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NumElements returns the product of concrete extents. A scalar has 1 element.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// rowMajorStrides calculates strides where stride[i] is the product of all
// extents after i.
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

// factorize splits a product of Dims into its known factor and the sorted
// list of symbolic factors, so two products can be compared structurally.
func factorize(dims []Dim) (int, []Dim) {
	known := 1
	var syms []Dim
	for _, d := range dims {
		if d.IsKnown() {
			known *= d.Value
			continue
		}
		syms = append(syms, d)
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Name != syms[j].Name {
			return syms[i].Name < syms[j].Name
		}
		return syms[i].Value < syms[j].Value
	})
	return known, syms
}
