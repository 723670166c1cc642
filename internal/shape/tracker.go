package shape

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// End marks an open slice end: the range runs to the end of the axis.
const End = int(^uint(0) >> 1)

// Range selects [Start, End) along one axis.
type Range struct {
	Start, End int
}

// All selects a whole axis.
func All() Range {
	return Range{Start: 0, End: End}
}

// Tracker describes, without touching storage, how logical indices of a
// tensor map onto its flat buffer after any sequence of permute, reshape,
// expand, slice and pad operations. It is a value: every operation returns a
// new Tracker and never mutates views shared with the receiver.
type Tracker struct {
	views []View
}

// New creates a Tracker over a contiguous buffer of the given shape.
func New(dims ...Dim) Tracker {
	return Tracker{views: []View{identityView(dims)}}
}

// NewKnown is New for concrete extents.
func NewKnown(ns ...int) Tracker {
	return New(Dims(ns...)...)
}

// top returns a copy of the top view, ready to be modified.
func (t Tracker) top() View {
	if len(t.views) == 0 {
		return identityView(nil)
	}
	return t.views[len(t.views)-1].clone()
}

// withTop returns a Tracker sharing every view but the top one.
func (t Tracker) withTop(v View) Tracker {
	views := make([]View, len(t.views))
	copy(views, t.views)
	if len(views) == 0 {
		views = append(views, v)
	} else {
		views[len(views)-1] = v
	}
	return Tracker{views: views}
}

// push returns a Tracker with v stacked on top.
func (t Tracker) push(v View) Tracker {
	views := make([]View, len(t.views), len(t.views)+1)
	copy(views, t.views)
	return Tracker{views: append(views, v)}
}

// Shape returns the logical shape.
func (t Tracker) Shape() []Dim {
	if len(t.views) == 0 {
		return nil
	}
	return t.views[len(t.views)-1].Shape()
}

// Rank returns the number of logical axes.
func (t Tracker) Rank() int {
	if len(t.views) == 0 {
		return 0
	}
	return len(t.views[len(t.views)-1].Axes)
}

// Views returns a copy of the view stack, bottom first.
func (t Tracker) Views() []View {
	out := make([]View, len(t.views))
	for i, v := range t.views {
		out[i] = v.clone()
	}
	return out
}

// Fake returns the broadcast flag of every logical axis.
func (t Tracker) Fake() []bool {
	v := t.top()
	out := make([]bool, len(v.Axes))
	for i, a := range v.Axes {
		out[i] = a.Fake || a.Src < 0
	}
	return out
}

// IsStatic reports whether every layer resolves without bindings. A known
// logical shape may still sit on a symbolic buffer.
func (t Tracker) IsStatic() bool {
	for _, v := range t.views {
		for _, d := range v.Base {
			if !d.IsKnown() {
				return false
			}
		}
		for _, a := range v.Axes {
			if !a.Size.IsKnown() {
				return false
			}
		}
	}
	return true
}

// Resolve returns the concrete logical shape.
func (t Tracker) Resolve(b Bindings) ([]int, error) {
	return ResolveAll(t.Shape(), b)
}

// NumElements returns the number of logical elements.
func (t Tracker) NumElements(b Bindings) (int, error) {
	shape, err := t.Resolve(b)
	if err != nil {
		return 0, err
	}
	return NumElements(shape), nil
}

// IsContiguous reports whether logical index i always reads physical index
// i, i.e. no layer permutes, broadcasts, slices or pads.
func (t Tracker) IsContiguous() bool {
	for _, v := range t.views {
		if !v.isIdentity() {
			return false
		}
	}
	return true
}

// Permute reorders the logical axes: axis i of the result is axis perm[i] of
// the receiver.
func (t Tracker) Permute(perm []int) (Tracker, error) {
	v := t.top()
	if err := checkPermutation(perm, len(v.Axes)); err != nil {
		return Tracker{}, err
	}
	axes := make([]Axis, len(perm))
	for i, p := range perm {
		axes[i] = v.Axes[p]
	}
	v.Axes = axes
	return t.withTop(v), nil
}

func checkPermutation(perm []int, rank int) error {
	if len(perm) != rank {
		return errors.Wrapf(ErrInvalidPermutation, "got %d axes for rank %d", len(perm), rank)
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return errors.Wrapf(ErrInvalidPermutation, "%v", perm)
		}
		seen[p] = true
	}
	return nil
}

// InversePermutation returns q such that permuting by perm then q is the identity.
func InversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return inv
}

// Reshape pushes a new view of the given shape over the current logical
// elements. When both element counts are known they must match; with
// symbolic extents the check is deferred to Indexer.
func (t Tracker) Reshape(dims []Dim) (Tracker, error) {
	oldKnown, oldSyms := factorize(t.Shape())
	newKnown, newSyms := factorize(dims)
	if EqualDims(oldSyms, newSyms) && oldKnown != newKnown {
		return Tracker{}, errors.Wrapf(ErrReshapeMismatch, "%s -> %s",
			FormatDims(t.Shape()), FormatDims(dims))
	}
	return t.push(identityView(dims)), nil
}

// Expand inserts a broadcast axis of the given size at position axis
// (0 <= axis <= rank). Indices differing only along it resolve identically.
func (t Tracker) Expand(axis int, size Dim) (Tracker, error) {
	v := t.top()
	if axis < 0 || axis > len(v.Axes) {
		return Tracker{}, errors.Wrapf(ErrAxisOutOfRange, "expand axis %d for rank %d", axis, len(v.Axes))
	}
	axes := make([]Axis, 0, len(v.Axes)+1)
	axes = append(axes, v.Axes[:axis]...)
	axes = append(axes, Axis{Size: size, Src: -1, Fake: true})
	axes = append(axes, v.Axes[axis:]...)
	v.Axes = axes
	return t.withTop(v), nil
}

// Broadcast grows an existing axis of extent 1 to size, marking it fake.
func (t Tracker) Broadcast(axis int, size Dim) (Tracker, error) {
	v := t.top()
	if axis < 0 || axis >= len(v.Axes) {
		return Tracker{}, errors.Wrapf(ErrAxisOutOfRange, "broadcast axis %d for rank %d", axis, len(v.Axes))
	}
	a := v.Axes[axis]
	if a.Size != Known(1) && !a.Fake {
		return Tracker{}, errors.Wrapf(ErrBroadcast, "axis %d has extent %s, not 1", axis, a.Size)
	}
	a.Size = size
	a.Fake = true
	v.Axes[axis] = a
	return t.withTop(v), nil
}

// BroadcastTo rewrites the logical shape to target, right-aligning axes:
// missing leading axes are inserted as broadcast axes and extent-1 axes grow.
func (t Tracker) BroadcastTo(target []Dim) (Tracker, error) {
	shape := t.Shape()
	if len(target) < len(shape) {
		return Tracker{}, errors.Wrapf(ErrBroadcast, "cannot broadcast %s to lower rank %s",
			FormatDims(shape), FormatDims(target))
	}
	out := t
	var err error
	for i := 0; i < len(target)-len(shape); i++ {
		if out, err = out.Expand(0, target[i]); err != nil {
			return Tracker{}, err
		}
	}
	offset := len(target) - len(shape)
	for i, d := range shape {
		want := target[offset+i]
		switch {
		case d == want:
			continue
		case d == Known(1):
			if out, err = out.Broadcast(offset+i, want); err != nil {
				return Tracker{}, err
			}
		case !d.IsKnown() || !want.IsKnown():
			// Reconciled at solve time: the resolved extents must agree.
			continue
		default:
			return Tracker{}, errors.Wrapf(ErrBroadcast, "%s to %s (axis %d)",
				FormatDims(shape), FormatDims(target), i)
		}
	}
	return out, nil
}

// Slice restricts every axis to its Range. Missing trailing ranges select the
// whole axis. Positions that fall outside the source extent resolve invalid.
func (t Tracker) Slice(ranges []Range) (Tracker, error) {
	v := t.top()
	if len(ranges) > len(v.Axes) {
		return Tracker{}, errors.Wrapf(ErrAxisOutOfRange, "%d ranges for rank %d", len(ranges), len(v.Axes))
	}
	for i, r := range ranges {
		if r.Start < 0 || r.End < r.Start {
			return Tracker{}, errors.Wrapf(ErrInvalidSlice, "axis %d: [%d, %d)", i, r.Start, r.End)
		}
		a := v.Axes[i]
		switch {
		case a.Size.IsKnown():
			end := min(r.End, a.Size.Value)
			start := min(r.Start, end)
			a.Size = Known(end - start)
			r.Start = start
		case r.End == End:
			a.Size = a.Size.Add(-r.Start)
		default:
			a.Size = Known(r.End - r.Start)
		}
		if !a.Fake {
			a.Start += r.Start
		}
		v.Axes[i] = a
	}
	return t.withTop(v), nil
}

// Pad extends every axis by padding[i][0] positions before and padding[i][1]
// after. Padded positions resolve invalid.
func (t Tracker) Pad(padding [][2]int) (Tracker, error) {
	v := t.top()
	if len(padding) > len(v.Axes) {
		return Tracker{}, errors.Wrapf(ErrAxisOutOfRange, "%d paddings for rank %d", len(padding), len(v.Axes))
	}
	for i, p := range padding {
		if p[0] < 0 || p[1] < 0 {
			return Tracker{}, errors.Wrapf(ErrInvalidSlice, "axis %d: negative padding %v", i, p)
		}
		if p[0] == 0 && p[1] == 0 {
			continue
		}
		a := v.Axes[i]
		if a.Fake || a.Src < 0 {
			return Tracker{}, errors.Wrapf(ErrInvalidSlice, "axis %d: cannot pad a broadcast axis", i)
		}
		a.Size = a.Size.Add(p[0] + p[1])
		a.Start -= p[0]
		v.Axes[i] = a
	}
	return t.withTop(v), nil
}

// RemoveAxis returns the contiguous Tracker for the shape without axis. It is
// how reductions derive their output view.
func (t Tracker) RemoveAxis(axis int) (Tracker, error) {
	shape := t.Shape()
	if axis < 0 || axis >= len(shape) {
		return Tracker{}, errors.Wrapf(ErrAxisOutOfRange, "axis %d for rank %d", axis, len(shape))
	}
	out := make([]Dim, 0, len(shape)-1)
	out = append(out, shape[:axis]...)
	out = append(out, shape[axis+1:]...)
	return New(out...), nil
}

// Contiguous returns a fresh Tracker over a dense buffer of the same logical shape.
func (t Tracker) Contiguous() Tracker {
	return New(t.Shape()...)
}

// Equivalent reports whether t and other resolve identically for every
// logical index under the given bindings.
func (t Tracker) Equivalent(other Tracker, b Bindings) (bool, error) {
	ia, err := t.Indexer(b)
	if err != nil {
		return false, err
	}
	ib, err := other.Indexer(b)
	if err != nil {
		return false, err
	}
	if !equalInts(ia.Shape(), ib.Shape()) {
		return false, nil
	}
	for i := 0; i < ia.Len(); i++ {
		pa, va := ia.Index(i)
		pb, vb := ib.Index(i)
		if va != vb || (va && pa != pb) {
			return false, nil
		}
	}
	return true, nil
}

// String implements fmt.Stringer.
func (t Tracker) String() string {
	return fmt.Sprintf("Tracker%s(views=%d)", FormatDims(t.Shape()), len(t.views))
}

// mustAxis panics on axis indices outside the declared rank. Callers validate
// user input first; reaching this means internal state is inconsistent.
func mustAxis(axis, rank int) {
	if axis < 0 || axis >= rank {
		exceptions.Panicf("shape: internal axis %d outside rank %d", axis, rank)
	}
}

func equalInts(a, b []int) bool {
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
